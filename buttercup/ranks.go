package buttercup

type Rank struct {
	Name      string
	Threshold int
	Color     string
}

// Ranks are the official flair ranks ordered by threshold.
var Ranks = []Rank{
	{Name: "Initiate", Threshold: 1, Color: "#ffffff"},
	{Name: "Pink", Threshold: 25, Color: "#e696be"},
	{Name: "Green", Threshold: 50, Color: "#00ff00"},
	{Name: "Teal", Threshold: 100, Color: "#00cccc"},
	{Name: "Purple", Threshold: 250, Color: "#ff67ff"},
	{Name: "Gold", Threshold: 500, Color: "#ffd700"},
	{Name: "Diamond", Threshold: 1000, Color: "#add8e6"},
	{Name: "Ruby", Threshold: 2500, Color: "#ff7ac2"},
	{Name: "Topaz", Threshold: 5000, Color: "#ff7d4d"},
	{Name: "Jade", Threshold: 10000, Color: "#31c831"},
	{Name: "Sapphire", Threshold: 20000, Color: "#99afef"},
}

var visitorRank = Rank{Name: "Visitor", Threshold: 0, Color: "#000000"}

func RankOf(gamma int) Rank {
	for i := len(Ranks) - 1; i >= 0; i-- {
		if gamma >= Ranks[i].Threshold {
			return Ranks[i]
		}
	}
	return visitorRank
}

// NextRank returns the first rank above gamma, false if the highest rank is reached.
func NextRank(gamma int) (Rank, bool) {
	for _, rank := range Ranks {
		if gamma < rank.Threshold {
			return rank, true
		}
	}
	return Rank{}, false
}
