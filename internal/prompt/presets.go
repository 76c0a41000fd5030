package prompt

import (
	"sort"
	"strings"
)

const DefaultPresetKey = "default"

type Preset struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

var presets = map[string]Preset{
	"default": {
		Key:   "default",
		Title: "General profile",
		Text: "Based on these Reddit comments, provide a comprehensive profile of the user. Identify their primary interests and the most recurring themes or subjects they engage with. " +
			"What insights do these patterns provide about their perspectives, values, or areas of expertise? Describe the overall online persona they project and their characteristic communication style. " +
			"Finally, analyze their typical engagement and interaction patterns within discussions (e.g., asking questions, offering advice, debating, sharing experiences).",
	},
	"comprehensiveProfile": {
		Key:   "comprehensiveProfile",
		Title: "Comprehensive profile",
		Text: "Based on these Reddit comments, provide a comprehensive profile of the user. Identify their primary interests, hobbies, and potential professional fields based on the topics they frequently discuss. " +
			"Infer potential demographic information (e.g., age range, location) if the data provides sufficient clues, but state clearly if these are speculative. " +
			"Describe their general worldview or philosophy based on recurring themes.",
	},
	"topInterests": {
		Key:   "topInterests",
		Title: "Top interests",
		Text: "What are the user's top 5 primary interests or areas of expertise, ranked by frequency and depth of engagement? " +
			"For each, provide specific examples of comments or subreddits that demonstrate this interest or expertise.",
	},
	"coreValues": {
		Key:   "coreValues",
		Title: "Core values",
		Text: "Analyze the user's comments to identify their core values, beliefs, or perspectives. Do they express strong opinions on social, political, ethical, or environmental issues? " +
			"How do these values manifest in their discussions and interactions?",
	},
	"onlinePersona": {
		Key:   "onlinePersona",
		Title: "Online persona",
		Text: "Synthesize the findings into an overall online persona. How might a stranger perceive this user based solely on their Reddit comments? " +
			"Is their persona consistent across different subreddits, or do they adapt their style and tone depending on the community?",
	},
	"interactionPatterns": {
		Key:   "interactionPatterns",
		Title: "Interaction patterns",
		Text: "Describe the user's typical engagement and interaction patterns within discussions. Do they primarily ask questions, offer advice, debate, share personal experiences, provide factual information, or express opinions? " +
			"Are they more reactive or proactive in starting discussions? How do they respond to disagreement or criticism?",
	},
	"controversialTopics": {
		Key:   "controversialTopics",
		Title: "Controversial topics",
		Text: "How does the user engage with controversial or sensitive topics? Do they avoid them, engage respectfully, become confrontational, or try to mediate? " +
			"Provide examples of their approach.",
	},
	"findDirt": {
		Key:   "findDirt",
		Title: "Investigator's dossier",
		Text: `Write a formal investigator's dossier on the author of these comments.

Cover, with paraphrased examples:
1. Behavioral patterns and communication style (tone, hostility, obsessive topics).
2. Controversial stances and strong opinions.
3. Inconsistencies and contradictions over time or across communities.
4. Handling of sensitive topics.
5. Red flags worth noting.

Finish with an overall assessment and a disclaimer that the report interprets online text only and is not a judgment of real-world character.`,
	},
	"religiousSleuth": {
		Key:   "religiousSleuth",
		Title: "Religious and spiritual outlook",
		Text: `Assess what these comments reveal about the author's religious or spiritual outlook.

Cover, with paraphrased examples:
1. Overall stance (religious, spiritual, atheist, agnostic, indifferent).
2. Possible denominational leanings, clearly marked as speculative.
3. Positions on social, ethical and philosophical questions and whether faith informs them.
4. Depth and consistency of these themes.
5. Signs of intolerance or, conversely, of open-mindedness.

Finish with an overall assessment and a disclaimer that findings are interpretations of online text only.`,
	},
	"mindBlower": {
		Key:   "mindBlower",
		Title: "Uncanny reply",
		Text: "Based on your analysis of this user's Reddit comments, craft a single, short (3-4 sentences) Reddit comment that subtly implies you know a specific, non-sensitive, recurring quirk, interest, or minor frustration of theirs. " +
			"The goal is a chuckle, not genuine concern. Do NOT reveal any genuinely private information, just a common, relatable habit or preference.",
	},
}

// Presets returns the preset library sorted by key.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func Lookup(key string) (Preset, bool) {
	p, ok := presets[key]
	return p, ok
}

// Resolve turns a preset key or custom prompt text into prompt text. An
// empty input selects the default preset. Custom text is returned as given.
func Resolve(keyOrText string) string {
	key := strings.TrimSpace(keyOrText)
	if key == "" {
		return presets[DefaultPresetKey].Text
	}
	if p, ok := presets[key]; ok {
		return p.Text
	}
	return keyOrText
}
