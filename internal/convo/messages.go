package convo

const (
	MsgGreeting  = "Hello! I’m Voicebot, built by Shephin Philip. Speak to me, and I’ll reply with voice and text—try asking about my life story or superpowers!"
	MsgFarewell  = "Goodbye for now! Catch you later!"
	MsgSignOff   = "I haven't heard anything for a while, so I'm signing off. Talk to you later!"
	MsgYouSaid   = "You said: "
	MsgGlitch    = "Something went wrong—let’s try that again!"
	MsgKeySet    = "Got it! Your API key is set, so ask me anything."
	MsgKeyEmpty  = "Please put your API key right after the prefix, like: key: sk-..."
	MsgKeyFailed = "I couldn't use that API key. Please check it and send it again."

	MsgNoSpeech     = "Sorry, I didn't catch that."
	MsgServiceError = "Sorry, there was an error with the speech service."
	MsgTimeout      = "I didn’t hear anything. Please try again."
)
