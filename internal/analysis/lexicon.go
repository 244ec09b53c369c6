package analysis

import "regexp"

type intentPattern struct {
	intent   Intent
	keywords []string
	pattern  *regexp.Regexp
}

var intentPatterns = []intentPattern{
	{IntentGreeting,
		[]string{"hi", "hello", "hey", "greetings", "good morning", "good afternoon", "good evening", "howdy", "sup", "what's up"},
		regexp.MustCompile(`^\s*(hi|hello|hey|yo|greetings?|good\s+(morning|afternoon|evening|day))\b`)},
	{IntentFarewell,
		[]string{"bye", "goodbye", "see you", "farewell", "later", "exit", "quit", "leave"},
		regexp.MustCompile(`\b(talk\s+to\s+you\s+later|gotta\s+go|good\s*night)\b`)},
	{IntentInformational,
		[]string{"what", "when", "where", "who", "why", "how", "explain", "tell me", "describe", "info", "information"},
		regexp.MustCompile(`\bknow\s+about\b`)},
	{IntentNavigational,
		[]string{"go", "move", "travel", "visit", "explore", "journey", "direction", "map", "location", "landmark"},
		regexp.MustCompile(`\b(go\s+to|move\s+to|where\s+is|how\s+to\s+get)\b`)},
	{IntentEmotional,
		[]string{"feel", "feeling", "emotion", "mood", "sad", "happy", "angry", "anxious", "depressed", "excited", "scared", "worried", "stressed"},
		regexp.MustCompile(`\b(feel(s|ings?)?|emotions?|overwhelmed)\b`)},
	{IntentHelp,
		[]string{"help", "assist", "support", "problem", "issue", "stuck", "confused", "lost", "guide", "advice"},
		regexp.MustCompile(`\b(don't\s+understand|need\s+help)\b`)},
	{IntentPhilosophical,
		[]string{"meaning", "purpose", "life", "existence", "reality", "truth", "philosophy", "believe", "think", "wonder"},
		regexp.MustCompile(`\b(consciousness|universe|exist(s|ence)?)\b`)},
	{IntentCasual,
		[]string{"chat", "talk", "conversation", "discuss", "random", "bored", "fun", "interesting"},
		regexp.MustCompile(`\btell\s+me\s+something\b`)},
	{IntentFeedback,
		[]string{"good", "bad", "great", "terrible", "awesome", "amazing", "horrible", "like", "dislike", "love", "hate"},
		regexp.MustCompile(`\b(excellent|poor)\b`)},
	{IntentTechnical,
		[]string{"system", "function", "work", "mechanism", "process", "algorithm", "method", "technique"},
		regexp.MustCompile(`\bhow\s+does\b.*\bwork\b`)},
	{IntentStory,
		[]string{"story", "tale", "narrative", "history", "past", "remember", "memory", "experience"},
		regexp.MustCompile(`\btell\s+me\s+about\b`)},
	{IntentPreference,
		[]string{"prefer", "favorite", "best", "worst", "rather", "choose", "like better"},
		regexp.MustCompile(`\bwould\s+you\s+rather\b`)},
	{IntentAgreement,
		[]string{"yes", "yeah", "yep", "sure", "okay", "agree", "right", "correct", "absolutely", "definitely"},
		regexp.MustCompile(`\bof\s+course\b`)},
	{IntentDisagreement,
		[]string{"no", "nope", "disagree", "wrong", "incorrect", "false", "not really", "doubt"},
		regexp.MustCompile(`\bdon't\s+think\s+so\b`)},
	{IntentClarification,
		[]string{"mean", "meant", "clarify", "explain more", "elaborate", "understand", "confusing"},
		regexp.MustCompile(`\bwhat\s+do\s+you\s+mean\b`)},
}

type tagKeywords struct {
	tag      string
	keywords []string
}

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicEmotionalSupport, []string{"feeling", "feelings", "emotion", "emotions", "mood", "support", "help me"}},
	{TopicExploration, []string{"explore", "discover", "find", "search", "look for"}},
	{TopicPhilosophy, []string{"meaning", "purpose", "existence", "truth", "reality"}},
	{TopicCreativity, []string{"create", "imagine", "design", "art", "music"}},
	{TopicMemories, []string{"remember", "memory", "memories", "past", "history", "story"}},
	{TopicRelationships, []string{"friend", "friends", "companion", "together", "relationship"}},
	{TopicPersonalGrowth, []string{"learn", "grow", "improve", "better", "change"}},
	{TopicProblemSolving, []string{"solve", "fix", "solution", "problem", "issue"}},
	{TopicMeditation, []string{"meditate", "meditation", "calm", "peace", "relax", "mindfulness"}},
	{TopicNature, []string{"nature", "crystal", "crystals", "garden", "forest", "water"}},
}

var needKeywords = []tagKeywords{
	{"location", []string{"where", "location", "place", "direction", "map"}},
	{"explanation", []string{"what", "explain", "describe", "definition", "means"}},
	{"guidance", []string{"how", "can i", "should i", "help me", "guide"}},
	{"understanding", []string{"why", "reason", "meaning", "purpose", "because"}},
	{"validation", []string{"right", "correct", "true", "valid", "sure"}},
	{"options", []string{"choices", "options", "alternatives", "possibilities", "or"}},
	{"recommendation", []string{"suggest", "recommend", "advice", "best", "should"}},
	{"confirmation", []string{"confirm", "verify", "check", "sure", "certain"}},
}

var expertiseKeywords = []tagKeywords{
	{"emotional_intelligence", []string{"feeling", "feelings", "emotion", "mood", "anxiety", "anxious", "depression", "stress", "stressed", "worried"}},
	{"guidance", []string{"help", "support", "guide", "advice", "suggest"}},
	{"philosophical", []string{"meaning", "purpose", "existence", "philosophy", "truth"}},
	{"technical", []string{"system", "function", "mechanism", "work", "process"}},
	{"creative", []string{"create", "imagine", "art", "music", "design"}},
	{"analytical", []string{"analyze", "understand", "explain", "reason", "logic"}},
	{"narrative", []string{"story", "tale", "history", "memory", "experience"}},
	{"spiritual", []string{"spirit", "spiritual", "energy", "soul", "ritual", "magic", "chakra", "divine"}},
}

var (
	urgentKeywords = []string{"urgent", "emergency", "immediately", "now", "quick", "asap", "hurry", "crisis"}
	highKeywords   = []string{"important", "need", "must", "have to", "critical"}
	lowKeywords    = []string{"whenever", "no rush", "when you can", "later", "eventually"}
)

var styleKeywords = []struct {
	style    Style
	keywords []string
}{
	{StyleFormal, []string{"please", "thank you", "excuse me", "pardon", "kindly", "would you"}},
	{StyleCasual, []string{"hey", "yeah", "gonna", "wanna", "kinda", "sorta", "lol", "btw"}},
	{StyleTechnical, []string{"algorithm", "system", "process", "function", "mechanism", "technical"}},
	{StyleEmotional, []string{"feel", "feeling", "emotion", "heart", "soul"}},
}

var (
	questionStart = regexp.MustCompile(`(?i)^\s*(what|when|where|who|why|how|is|are|can|could|would|should|do|does|did)\b`)
	clauseMarker  = regexp.MustCompile(`(?i)[,;]|\b(and|but|or|because|although|however)\b`)
	sarcasm       = regexp.MustCompile(`(?i)yeah right|sure thing|oh great|wonderful \(not\)|just perfect`)
	codeSyntax    = regexp.MustCompile(`function\(|var |const |if\(|for\(|\{|\}|</?\w+>`)
	crisis        = regexp.MustCompile(`(?i)suicid|self.?harm|kill myself|end it all|want to die`)
)
