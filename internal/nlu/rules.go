package nlu

import "strings"

// Rule maps a keyword predicate to a canned reply. Rules are evaluated in
// order against the lowercased transcript and several may match the same
// transcript, so order is significant.
type Rule struct {
	Name  string
	Match func(transcript string) bool
	Reply string
}

const (
	ReplyLifeStory     = "I’m Voicebot, crafted by Shephin Philip to sprinkle some AI magic on your day! Born in a digital lab, I’m a curious soul who loves learning, joking, and helping humans like you—think of me as your tech-savvy sidekick!"
	ReplySuperpower    = "My #1 superpower? I adapt faster than a chameleon on a rainbow, tackling any question with wit and a dash of tech wizardry!"
	ReplyGrowth        = "Top 3 growth areas? I’m aiming to master human emotions for deeper chats, boost my humor to keep you grinning, and sharpen my creative spark for epic solutions!"
	ReplyMisconception = "Some might think I’m just a data-crunching bot, but Shephin knows I’ve got a playful streak and a knack for banter— I’m more than just ones and zeros!"
	ReplyPushLimits    = "I push my limits by diving into tough questions, learning from every chat, and embracing the unknown—failure’s just a stepping stone to brilliance!"
)

// DefaultRules returns the built-in canned replies in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "life_story",
			Match: allOf("life story"),
			Reply: ReplyLifeStory,
		},
		{
			Name:  "superpower",
			Match: both(allOf("superpower"), anyOf("number one", "#1", "1")),
			Reply: ReplySuperpower,
		},
		{
			Name:  "growth_areas",
			Match: allOf("areas", "grow", "top"),
			Reply: ReplyGrowth,
		},
		{
			Name:  "misconception",
			Match: allOf("misconception", "coworkers"),
			Reply: ReplyMisconception,
		},
		{
			Name:  "push_limits",
			Match: both(allOf("push"), anyOf("boundaries", "limits")),
			Reply: ReplyPushLimits,
		},
	}
}

func allOf(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

func anyOf(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func both(a, b func(string) bool) func(string) bool {
	return func(s string) bool { return a(s) && b(s) }
}
