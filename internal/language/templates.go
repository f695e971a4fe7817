// internal/language/templates.go
package language

// The first-turn greeting and the rendering-failure fallback are the only
// literal user-facing strings the conversation core produces itself. All
// other wording comes from the external reply renderer.

var greetings = map[string]string{
	Hindi: "नमस्ते! मैं BankGPT हूँ टाटा कैपिटल से। " +
		"आप अपने लिए कौन सा लोन ढूंढ रहे हैं?",
	Hinglish: "Namaste! Main BankGPT hoon Tata Capital se. " +
		"Aap apne liye kaunsa loan dhundh rahe ho?",
	English: "Namaste! I am BankGPT from Tata Capital. " +
		"What kind of loan are you looking for?",
}

var fallbacks = map[string]string{
	Hindi:    "क्षमा करें, मुझे आपका अनुरोध समझने में दिक्कत हो रही है। कृपया दोबारा बताएं।",
	Hinglish: "Sorry, mujhe aapka request process karne mein dikkat ho rahi hai. Dobara try karein.",
	English:  "I'm having trouble processing your request. Could you please try again?",
}

// Greeting returns the fixed first-turn greeting for a language tag.
func Greeting(lang string) string {
	if g, ok := greetings[lang]; ok {
		return g
	}
	return greetings[English]
}

// Fallback returns the fixed apology used when reply generation fails.
func Fallback(lang string) string {
	if f, ok := fallbacks[lang]; ok {
		return f
	}
	return fallbacks[English]
}
