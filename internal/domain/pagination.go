package domain

type Pagination struct {
	Page     int
	PageSize int
}

func (f Pagination) Limit() int {
	return f.PageSize
}

func (f Pagination) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Metadata struct {
	CurrentPage  int
	FirstPage    int
	LastPage     int
	PageSize     int
	TotalRecords int
}

func NewMetadata(totalRecords int, p Pagination) *Metadata {
	return &Metadata{
		CurrentPage:  p.Page,
		FirstPage:    1,
		LastPage:     (totalRecords + p.PageSize - 1) / p.PageSize,
		PageSize:     p.PageSize,
		TotalRecords: totalRecords,
	}
}
