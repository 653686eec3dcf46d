package entity

// SecondarySource is a non-representative document attached to a Cluster.
type SecondarySource struct {
	SourceName string
	Domain     string
	URL        string
	Title      string
}

// Cluster groups documents describing the same underlying risk event.
// Representative is the document presented for the cluster; SecondarySources
// keeps the other coverage in arrival order.
type Cluster struct {
	Key              string
	Representative   ClassifiedDocument
	SecondarySources []SecondarySource
}

// IsAdverse reports whether the cluster's representative is adverse.
func (c Cluster) IsAdverse() bool {
	return c.Representative.Verdict.IsAdverse
}
