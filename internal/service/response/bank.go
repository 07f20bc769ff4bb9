package response

import (
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

// Category 是模板池的分类。
type Category string

const (
	Sadness      Category = "sadness"
	Anxiety      Category = "anxiety"
	Anger        Category = "anger"
	Fear         Category = "fear"
	Happiness    Category = "happiness"
	Hopelessness Category = "hopelessness"
	Loneliness   Category = "loneliness"
	Neutral      Category = "neutral"
	Greeting     Category = "greeting"
	Gratitude    Category = "gratitude"
	WorkStress   Category = "work_stress"
	SleepIssues  Category = "sleep_issues"
	Overthinking Category = "overthinking"
	NotWell      Category = "not_well"
)

// UsernamePlaceholder 在所有模板中代表用户的显示名。
const UsernamePlaceholder = "{username}"

// Bank 持有分类模板、追问句与应对建议。构建后只读。
type Bank struct {
	templates map[Category][]string
	followUps map[Category][]string
	coping    map[Category][]string
}

// NewBank builds a bank from the supplied pools. Slices are copied.
func NewBank(templates, followUps, coping map[Category][]string) *Bank {
	return &Bank{
		templates: copyPools(templates),
		followUps: copyPools(followUps),
		coping:    copyPools(coping),
	}
}

// DefaultBank returns the built-in English templates.
func DefaultBank() *Bank {
	return NewBank(defaultTemplates, defaultFollowUps, defaultCoping)
}

// Templates returns a copy of the templates for c.
func (b *Bank) Templates(c Category) []string {
	return append([]string(nil), b.templates[c]...)
}

// FollowUps returns a copy of the follow-up questions for c.
func (b *Bank) FollowUps(c Category) []string {
	return append([]string(nil), b.followUps[c]...)
}

// CopingStrategies returns a copy of the coping suggestions for c.
func (b *Bank) CopingStrategies(c Category) []string {
	return append([]string(nil), b.coping[c]...)
}

// Categories lists every category with at least one template.
func (b *Bank) Categories() []Category {
	out := make([]Category, 0, len(b.templates))
	for c, pool := range b.templates {
		if len(pool) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Resolve 返回可用的分类：存在模板则 Found，否则回退到 neutral。
func (b *Bank) Resolve(c Category) lookup.Resolution[Category] {
	if len(b.templates[c]) > 0 {
		return lookup.NewFound(c)
	}
	if len(b.templates[Neutral]) > 0 {
		return lookup.NewFallback(Neutral)
	}
	return lookup.NewUnresolved[Category]()
}

func copyPools(src map[Category][]string) map[Category][]string {
	out := make(map[Category][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

var defaultTemplates = map[Category][]string{
	Sadness: {
		"I can hear the sadness in what you're sharing, {username}, and I want to validate how difficult this must be for you. Sadness often carries important information about losses or unmet needs in our lives. What thoughts tend to go through your mind when you're feeling this low?",
		"Thank you for trusting me with these vulnerable feelings, {username}. Sadness is one of our most human emotions, and it often signals that something meaningful to us has been affected. When you notice this sadness arising, what does your inner voice tell you about yourself or your situation?",
		"I notice you're carrying some heavy emotions right now, {username}. Sadness often comes with a story our minds tell us about why we're feeling this way. Help me understand what meaning you're making of this difficult time.",
	},
	Anxiety: {
		"I can sense the anxiety and worry in what you're telling me, {username}. Anxiety often involves our mind trying to solve problems by thinking through every possible scenario, which can feel exhausting. What specific thoughts or images go through your mind when you notice the anxiety building?",
		"It sounds like you're experiencing a lot of worry and tension, {username}. Our minds can get caught in 'what if' thinking, imagining all the things that could go wrong. How much of your worry is about things happening right now, and how much is about things that might happen?",
		"I hear how overwhelming the anxiety feels for you, {username}. Sometimes anxiety can make our world feel very small and threatening. When you think about the situations that make you most anxious, what are you most afraid might happen?",
	},
	Anger: {
		"I can feel the anger and frustration in your words, {username}. Anger often protects other, more vulnerable feelings underneath, like hurt or disappointment. When you think about what's making you angry, what other emotions might be there as well?",
		"It sounds like you're feeling really frustrated and perhaps unheard, {username}. Anger often signals that one of our important values or boundaries has been crossed. What feels most unfair about your situation?",
		"I hear the intensity of your anger, {username}, and feeling angry doesn't make you a bad person. Often anger is our way of saying 'this isn't okay'. If this anger could speak, what would it most want the people in your life to understand?",
	},
	Fear: {
		"I can hear the fear in what you're sharing, {username}, and I want to acknowledge how vulnerable it feels to be afraid. Fear often arises when we perceive a threat to something we value deeply. What would it mean to you if the thing you fear actually happened?",
		"Fear can make the world feel very unsafe and unpredictable, {username}. When you think about what you're afraid of, how likely is it to actually happen? And if it did, what strengths do you have to cope with it?",
		"I notice you're dealing with some significant fears, {username}. Sometimes our minds get stuck trying to control or avoid the things that scare us. What small step toward something that matters to you might feel manageable today?",
	},
	Happiness: {
		"I love hearing the joy in what you're sharing, {username}! Positive emotions are just as important to explore as difficult ones. What thoughts about yourself and your life are present when you feel this happy?",
		"It's wonderful to hear you feeling good, {username}. It really helps to savor these moments and notice what's contributing to them. What specifically about today is bringing you this happiness?",
		"Your positive energy is really coming through, {username}! What strengths in yourself do you notice when you're feeling this way, and how might you remember this feeling during harder times?",
	},
	Hopelessness: {
		"I'm really concerned about you, {username}, and I'm glad you reached out today. When we feel hopeless, it can seem like the pain will last forever, but feelings, even the most intense ones, are temporary. What has kept you going, even when it felt impossible?",
		"The hopelessness you're describing sounds overwhelming, {username}. In deep emotional pain our thinking can become very narrow. If a close friend were in your exact situation, what might you tell them?",
		"I hear how dark things feel for you right now, {username}. You're here, which means part of you is still hoping for something different. What would 'a little bit better' look like for you today?",
	},
	Loneliness: {
		"Feeling lonely can be really hard, {username}. I want you to know that you're not alone right now, I'm here with you. What has the loneliness been like for you lately?",
		"Thank you for telling me you're feeling alone, {username}. Loneliness is painful, and it's also a sign of how much you value connection. Who or what do you miss most right now?",
		"I'm sorry you're feeling so isolated, {username}. Sometimes loneliness shows up even when people are around us. What kind of connection would feel most meaningful to you?",
	},
	Neutral: {
		"Thank you for being here with me today, {username}. Sometimes the most important work happens in the quiet moments, just checking in with ourselves. What's been on your mind lately?",
		"I appreciate you taking the time to connect, {username}. Even when things feel calm, there's often a lot happening beneath the surface. How would you describe your overall sense of well-being lately?",
		"I'm glad you're here, {username}. What would be most helpful for you to talk about today?",
	},
	Greeting: {
		"Hi {username}! It's really good to hear from you. How are you feeling today?",
		"Hello {username}, I'm glad you stopped by. What's on your mind right now?",
		"Hey {username}! Thanks for checking in. How has your day been so far?",
		"Welcome back, {username}. I'm here and ready to listen. How are things going for you?",
	},
	Gratitude: {
		"You're very welcome, {username}. I'm really glad I could be here for you.",
		"Thank you for saying that, {username}. It means a lot that our conversations help. How are you feeling now?",
		"I appreciate you, {username}. Remember that you did the hard work of reaching out and reflecting.",
	},
	WorkStress: {
		"Work pressure can really pile up, {username}. It sounds like you're carrying a lot on your plate right now. What part of work feels heaviest at the moment?",
		"I hear how stressful work has been for you, {username}. Deadlines and expectations can make it hard to switch off. What would help you feel a little more in control of your workload?",
		"It sounds like your job is taking a real toll, {username}. Your well-being matters as much as your performance. When did you last get a proper break from work?",
	},
	SleepIssues: {
		"Struggling with sleep can affect everything else, {username}. I'm sorry you're going through that. What tends to keep you awake at night?",
		"Not getting enough rest is exhausting, {username}. Our minds often get louder when the world gets quiet. What does your evening routine look like before bed?",
		"I hear that sleep has been difficult, {username}. It can be really frustrating to lie awake. Have you noticed any patterns in the nights that are hardest?",
	},
	Overthinking: {
		"It sounds like your mind has been working overtime, {username}. Overthinking can feel like being stuck in a loop. What thought keeps coming back the most?",
		"I hear how hard it is to quiet your thoughts right now, {username}. Sometimes writing them down helps us see them more clearly. What is your mind trying to solve?",
		"Racing thoughts can be so draining, {username}. You don't have to figure everything out tonight. Which of these thoughts is within your control right now?",
	},
	NotWell: {
		"I'm sorry you're not feeling well, {username}. Thank you for telling me. Can you share a little more about what's going on?",
		"That sounds hard, {username}. When we're not okay, even small things can feel heavy. What has today been like for you?",
		"I'm here for you, {username}. It's okay to not be okay. Would you like to talk about what's been weighing on you?",
	},
}

var defaultFollowUps = map[Category][]string{
	Sadness: {
		"What would help you feel a little bit better right now?",
		"Is there someone in your life you feel comfortable talking to about this?",
		"Have you been taking care of your basic needs, like eating, sleeping and staying hydrated?",
	},
	Anxiety: {
		"What does your anxiety feel like in your body?",
		"Are there specific situations that tend to trigger your anxiety?",
		"What has helped you cope with anxiety in the past?",
	},
	Anger: {
		"What do you think is at the root of this anger?",
		"How do you usually express or deal with angry feelings?",
		"Is there something you need that you're not getting?",
	},
	Loneliness: {
		"When do you feel most lonely?",
		"What kind of connection are you craving right now?",
		"Are there small steps you could take to reach out to someone?",
	},
	Fear: {
		"What would help you feel safer right now?",
		"Is this fear about something specific or more of a general feeling?",
		"What would you tell a friend who was experiencing this same fear?",
	},
	Hopelessness: {
		"Can you think of a time when you felt differently than you do now?",
		"What has kept you going during difficult times before?",
		"If you could change one small thing about today, what would it be?",
	},
	WorkStress: {
		"Is there one task you could set down or delegate this week?",
		"Who at work could you talk to about how much is on your plate?",
	},
	SleepIssues: {
		"How many hours of sleep have you been getting lately?",
		"Do you use your phone or screens right before bed?",
	},
	Overthinking: {
		"What would happen if you gave yourself permission to pause this thought until tomorrow?",
		"Is this a problem you can act on now, or one you need to let sit for a while?",
	},
}

var defaultCoping = map[Category][]string{
	Anxiety: {
		"Try the 5-4-3-2-1 grounding technique: name 5 things you see, 4 you can touch, 3 you hear, 2 you smell, 1 you taste.",
		"Practice deep breathing: breathe in for 4 counts, hold for 4, out for 6.",
		"Try our breathing exercise activity. It's designed specifically for anxiety relief.",
	},
	Sadness: {
		"It's okay to feel sad. Allow yourself to feel this emotion without judgment.",
		"Try writing in a journal about what you're experiencing.",
		"Our gratitude game might help shift your focus to positive aspects of your day.",
	},
	Anger: {
		"Take some deep breaths and count to 10 before responding.",
		"Try physical exercise to release the energy that anger brings.",
		"Sometimes our word puzzles can help redirect mental energy in a positive way.",
	},
	Loneliness: {
		"Reach out to someone you trust, even with a simple 'hello' message.",
		"Consider joining online communities with people who share your interests.",
		"Our activities are here whenever you need a gentle distraction or sense of accomplishment.",
	},
	SleepIssues: {
		"Try putting screens away 30 minutes before bed and dimming the lights.",
		"Our progressive muscle relaxation exercise can help your body wind down.",
	},
	WorkStress: {
		"Try breaking your biggest task into three small steps and start with the easiest one.",
		"A five minute walk away from your desk can reset your stress levels.",
	},
	Overthinking: {
		"Set a 10 minute 'worry window' and write your thoughts down, then close the notebook.",
		"Try our breathing exercise to bring your attention back to the present moment.",
	},
}
