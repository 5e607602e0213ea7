package keywords

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var stopWords = set(
	// 通用英文停用词
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "from", "of", "for", "with",
	"it", "its", "is", "was", "were", "be", "being", "been", "he", "she", "they", "them", "their",
	"this", "that", "these", "those", "i", "you", "me", "my", "your", "we", "us", "our",
	"have", "has", "had", "do", "does", "did", "will", "would", "shall", "should", "can", "could",
	"may", "might", "must", "about", "above", "below", "over", "under", "again", "further", "then",
	"once", "here", "there", "when", "where", "why", "how", "all", "any", "both", "each", "few",
	"more", "most", "other", "some", "such", "no", "nor", "not", "only", "own", "same", "so",
	"than", "too", "very", "just", "don", "now", "what", "who", "which", "into", "out", "off", "are",
	// 新闻通用词
	"news", "article", "source", "feed", "rss", "update", "updates", "story", "report", "reports",
	"says", "said", "told", "also", "like", "via", "gmt", "est", "edt", "pst", "pdt",
	"read", "view", "comments", "share", "follow", "copyright", "reserved", "rights", "advertisement",
	"january", "february", "march", "april", "june", "july", "august", "september",
	"october", "november", "december", "monday", "tuesday", "wednesday", "thursday", "friday",
	"saturday", "sunday", "today", "yesterday", "tomorrow", "week", "month", "year", "time",
	"new", "old", "first", "last", "next", "previous", "world", "politics", "u.s", "u.s.",
	"inc.", "ltd.", "corp.", "llc",
	"breaking", "exclusive", "live", "developing", "urgent",
	"opinion", "editorial", "business", "finance", "money", "economy", "markets", "technology", "tech",
	"science", "health", "sports", "arts", "culture", "entertainment", "style", "fashion", "travel",
	"food", "dining", "real estate", "home", "education", "books", "obituaries", "weather", "local",
	"metro", "national", "international", "magazine", "weekend", "columns", "features", "lifestyle",
	"society", "law", "crime", "justice", "environment", "jobs", "careers", "autos", "cars", "classifieds",
	"events", "calendar", "letters", "comics", "puzzles", "games", "horoscopes", "crosswords", "photos",
	"video", "audio", "podcast", "image", "photo", "picture", "clip", "series", "episode", "season", "show",
	"film", "documentary", "announced", "reported", "claimed", "stated", "described", "appeared", "revealed",
	"suggested", "mentioned", "noted", "added", "explained", "confirmed", "denied", "asked", "called",
	"commented", "shared", "showed", "headline", "latest", "interview", "statement", "press", "release",
	"analysis", "feature", "briefing", "recap", "roundup", "summary", "preview", "review", "guide",
	"explainer", "breakdown", "profile", "description", "cover", "amid", "despite", "following",
	"according", "regarding", "concerning", "per", "through", "throughout", "during", "before", "after",
	"among", "between", "within", "around", "across", "along", "beyond", "top", "big", "major", "key",
	"important", "significant", "critical", "essential", "vital", "crucial", "main", "primary", "secondary",
	"notable", "recent", "current", "ongoing", "upcoming", "potential", "possible",
	"likely", "unlikely", "certain", "controversial", "popular", "final", "begin", "began", "begun",
	"start", "started", "end", "ended", "shows", "showing", "shown", "see", "sees", "seen", "saw",
	"watch", "watched", "watching", "look", "looked", "looking", "think", "thought", "thinking", "make",
	"made", "making", "take", "took", "taken", "taking", "get", "got", "getting", "find", "found",
	"finding", "use", "used", "using", "tell", "telling", "become", "became", "becoming",
	"president", "vice", "senator", "rep", "representative", "secretary", "governor", "mayor", "chief",
	"director", "chairman", "chairwoman", "spokesperson", "minister", "chancellor", "prime", "king",
	"queen", "prince", "princess", "duke", "duchess", "sir", "dame", "ceo", "founder", "official",
	"leader", "spokesman", "spokeswoman",
)

// 媒体名称不作为关键词，按整词匹配
var mediaNames = []string{
	"cnn", "msnbc", "new york times", "washington post", "npr", "abc news", "cbs news", "nbc news",
	"nytimes", "wapo", "mother jones", "democracy now", "huffington post", "vox", "huffpost",
	"vanity fair", "new yorker", "truthout", "alternet", "intercept", "truthdig", "raw story",
	"associated press", "reuters", "bbc", "christian science monitor", "axios", "bloomberg",
	"usa today", "the hill", "pbs", "newsweek", "wall street journal", "washington times",
	"national review", "fox news", "new york post", "forbes", "wsj", "nypost", "daily wire",
	"american conservative", "breitbart", "daily caller", "political insider", "newsmax",
	"economist", "financial times", "cnbc", "al jazeera", "guardian", "deutsche welle",
	"france 24", "times of india", "wires",
}
