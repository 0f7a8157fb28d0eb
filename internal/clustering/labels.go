package clustering

// UnknownDescription is returned for cluster ids missing from the label table.
const UnknownDescription = "Unknown Type"

// clusterDescriptions maps model cluster ids to display names.
//
// Id 3 is whatever the model emits as its fourth label. It is not assumed
// to be a density-based noise label.
var clusterDescriptions = map[int]string{
	0: "Trending/Popular Songs",
	1: "Acoustic/Chill/Lo-fi",
	2: "High Energy/Dance/Party",
	3: "Outlier/Noise or Rare",
}

// Describe returns the human-readable description of a cluster id.
func Describe(clusterID int) string {
	if desc, ok := clusterDescriptions[clusterID]; ok {
		return desc
	}
	return UnknownDescription
}

// ClusterIDs returns the ids that have a description, in ascending order.
func ClusterIDs() []int {
	ids := make([]int, 0, len(clusterDescriptions))
	for id := range len(clusterDescriptions) {
		if _, ok := clusterDescriptions[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
