package recognition

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = "en-US"

// Language is a supported recognition locale.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the locales the service accepts.
var Languages = []Language{
	{Code: "en-US", Name: "English (US)"},
	{Code: "en-GB", Name: "English (UK)"},
	{Code: "es-ES", Name: "Spanish (Spain)"},
	{Code: "es-MX", Name: "Spanish (Mexico)"},
	{Code: "fr-FR", Name: "French (France)"},
	{Code: "de-DE", Name: "German (Germany)"},
	{Code: "it-IT", Name: "Italian (Italy)"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)"},
	{Code: "ja-JP", Name: "Japanese (Japan)"},
	{Code: "ko-KR", Name: "Korean (South Korea)"},
	{Code: "zh-CN", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
}

// LanguageCodes returns the codes of Languages.
func LanguageCodes() []string {
	codes := make([]string, len(Languages))
	for i, l := range Languages {
		codes[i] = l.Code
	}
	return codes
}
