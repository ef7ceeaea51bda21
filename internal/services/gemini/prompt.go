package gemini

import (
	"fmt"
	"strings"

	"belegsort/internal/accounts"
)

// promptTemplate is the instruction block sent to the analyzer for every
// document. Keep updates centralized here so it is easy to tweak without
// hunting through call sites.
const promptTemplate = `Du bist ein erfahrener Buchhaltungsassistent.
Deine Aufgabe ist es, strukturierte Daten aus der Datei @%s zu extrahieren, damit diese ordnungsgemäss umbenannt werden kann.

Analysiere den Inhalt (Bild oder PDF) und den Dateinamen.
Antworte AUSSCHLIESSLICH mit einem validen JSON-Objekt. Keine Markdown-Formatierung, kein Text davor oder danach.

Das JSON muss folgende Felder enthalten:
{
  "date": "YYYY-MM-DD",
  "issuer": "Firmenname",
  "document_type": "Rechnung, Quittung, Bestaetigung oder Anderes",
  "recipient": "Empfänger, Default: %s",
  "customer": "Kundenname falls zutreffend, sonst leer",
  "account": "Aufwandskonto im Format Nummer - Name",
  "amount": "Betrag falls erkennbar, sonst leer",
  "description": "Kurze Beschreibung der Transaktion (max 5-6 Wörter, Deutsch)"
}

%s

Hinweise:
1. Datum: Format YYYY-MM-DD. Falls nicht auffindbar: leer lassen.
2. recipient: Wenn kein Empfänger erkennbar ist, nimm "%s".
3. Die Werte dürfen keine ungültigen Dateinamen-Zeichen enthalten.`

const accountsFallback = `Aufwandskonto:
Keine Kontenliste verfügbar. Schätze den passenden Kontonamen basierend auf üblichen Schweizer Buchhaltungskonten.`

// BuildPrompt assembles the analyzer prompt for one document.
func BuildPrompt(fileName, companyName string, table *accounts.Table, customInstructions string) string {
	accountsSection := accountsFallback
	if table.Len() > 0 {
		accountsSection = fmt.Sprintf("Aufwandskonto (verwende diese Liste zur Zuordnung):\n%s", table.PromptBlock())
	}

	prompt := fmt.Sprintf(promptTemplate, fileName, companyName, accountsSection, companyName)
	if custom := strings.TrimSpace(customInstructions); custom != "" {
		prompt += "\n\nZusätzliche Anweisungen:\n" + custom
	}
	return prompt
}
