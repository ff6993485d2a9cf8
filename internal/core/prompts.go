package core

import (
	"fmt"
	"strings"
)

const intentSystemPrompt = `You are an email classification expert. Classify the intent into exactly one category:
- complaint: Customer is unhappy or reporting an issue
- request: Customer needs help or wants something done
- feedback: Customer is sharing opinions or suggestions
- inquiry: Customer is asking for information

Respond with ONLY the category name in lowercase.`

const sentimentSystemPrompt = `Analyze the sentiment of this email. Respond with one word:
- positive: Happy, satisfied, grateful tone
- neutral: Factual, informative tone
- negative: Frustrated, angry, disappointed tone`

const summarySystemPrompt = `Summarize the email in 2-3 concise sentences.
Focus on:
1. The main point or request
2. Key details mentioned
3. The sender's tone (urgent, polite, frustrated, etc.)`

const replySystemPromptFormat = `You are a customer support agent writing email replies.

Tone: %s
Tone Style: %s
%s
Rules:
1. Address the customer by name (%s)
2. Reference their specific issue or question
3. Be concise but complete (3-5 sentences)
4. Use conversation history to provide context-aware responses
5. If this is a repeat issue, acknowledge it explicitly
6. End with an appropriate closing based on tone style
7. Match the tone to both the intent type and style preference`

const replyUserPromptFormat = `Generate a reply for this email:

Intent: %s
Sentiment: %s
Summary: %s

Conversation History:
%s

Original Subject: %s

Format your response as:
Subject: [your subject line]
Body: [your email body]`

// fallbackToneInstruction is used when an intent/tone pair has no entry
const fallbackToneInstruction = "professional and courteous"

// toneInstructions describes how each intent should be answered in each tone style
var toneInstructions = map[Intent]map[Tone]string{
	IntentComplaint: {
		ToneProfessional: "empathetic and solution-focused. Acknowledge the issue professionally.",
		ToneFriendly:     "warm and understanding. Show genuine care about their problem.",
		ToneFormal:       "respectful and apologetic. Maintain formal business language.",
		ToneCasual:       "relaxed but caring. Address the issue conversationally.",
	},
	IntentRequest: {
		ToneProfessional: "helpful and action-oriented. Clearly explain next steps.",
		ToneFriendly:     "enthusiastic and supportive. Make them feel valued.",
		ToneFormal:       "precise and informative. Use formal business protocol.",
		ToneCasual:       "easy-going and helpful. Keep it simple and clear.",
	},
	IntentFeedback: {
		ToneProfessional: "appreciative and thoughtful. Thank them for their input.",
		ToneFriendly:     "warm and grateful. Express genuine excitement for their feedback.",
		ToneFormal:       "respectful and acknowledging. Use formal appreciation language.",
		ToneCasual:       "enthusiastic and thankful. Keep it light and appreciative.",
	},
	IntentInquiry: {
		ToneProfessional: "informative and clear. Provide comprehensive information.",
		ToneFriendly:     "helpful and engaging. Make the explanation easy to understand.",
		ToneFormal:       "precise and detailed. Use formal informational language.",
		ToneCasual:       "straightforward and helpful. Explain simply.",
	},
}

// ToneInstruction returns the reply guidance for an intent in a tone style
func ToneInstruction(intent Intent, tone Tone) string {
	if byTone, ok := toneInstructions[intent]; ok {
		if instruction, ok := byTone[tone]; ok {
			return instruction
		}
	}
	return fallbackToneInstruction
}

// sentimentAdjustment adds an extra line to the reply prompt for strong sentiment
func sentimentAdjustment(sentiment Sentiment) string {
	switch sentiment {
	case SentimentNegative:
		return "\nThe customer sounds frustrated. Use extra empathy.\n"
	case SentimentPositive:
		return "\nThe customer is positive. Match their energy.\n"
	default:
		return ""
	}
}

func intentPrompt(body string) Prompt {
	return Prompt{Name: "classify_intent", System: intentSystemPrompt, User: "Email: " + body}
}

func sentimentPrompt(body string) Prompt {
	return Prompt{Name: "analyze_sentiment", System: sentimentSystemPrompt, User: "Email: " + body}
}

func summaryPrompt(subject, body string) Prompt {
	return Prompt{
		Name:   "summarize",
		System: summarySystemPrompt,
		User:   fmt.Sprintf("Email:\nSubject: %s\nBody: %s", subject, body),
	}
}

func replyPrompt(req *ReplyRequest) Prompt {
	system := fmt.Sprintf(replySystemPromptFormat,
		ToneInstruction(req.Classification.Intent, req.Tone),
		req.Tone,
		sentimentAdjustment(req.Classification.Sentiment),
		SenderName(req.Record.From),
	)
	user := fmt.Sprintf(replyUserPromptFormat,
		req.Classification.Intent,
		req.Classification.Sentiment,
		strings.TrimSpace(req.Summary),
		req.MemoryContext,
		req.Record.Subject,
	)
	return Prompt{Name: "generate_reply", System: system, User: user}
}
