package catalog

// DisplayState is the rendered snapshot of the most recent fetch cycle. It is replaced
// wholesale on completion; Loading marks a cycle still in flight.
type DisplayState struct {
	Items            []Product
	TotalPages       int
	PageMarkers      []int
	CurrentPage      int
	PageSize         int
	Loading          bool
	ErrorMessage     string
	SourceIsFallback bool
}

// LoadingState derives the state shown while a cycle is in flight: the previous items
// stay available to the caller but the state is flagged as loading with no error.
func LoadingState(prev DisplayState, page int) DisplayState {
	next := prev.Clone()
	next.Loading = true
	next.ErrorMessage = ""
	if page > 0 {
		next.CurrentPage = page
	}
	return next
}

// Clone returns a deep copy.
func (s DisplayState) Clone() DisplayState {
	s.Items = CloneProducts(s.Items)
	if s.PageMarkers != nil {
		markers := make([]int, len(s.PageMarkers))
		copy(markers, s.PageMarkers)
		s.PageMarkers = markers
	}
	return s
}

// HasError reports whether the state carries a user visible notice.
func (s DisplayState) HasError() bool {
	return s.ErrorMessage != ""
}

// SimilarityState holds image-similarity results. It is independent of Query and
// DisplayState.
type SimilarityState struct {
	Active      bool
	ResultItems []Product
}

// Clone returns a deep copy.
func (s SimilarityState) Clone() SimilarityState {
	s.ResultItems = CloneProducts(s.ResultItems)
	return s
}
