package render

// Kind identifies one of the four derived artifacts a page can carry. The
// declaration order doubles as the fixed priority order (PageSize first),
// although delivery stays strictly FIFO.
type Kind int

const (
	KindPageSize Kind = iota
	KindPicture
	KindThumbnail
	KindTextLayer
)

func (k Kind) String() string {
	switch k {
	case KindPageSize:
		return "pagesize"
	case KindPicture:
		return "picture"
	case KindThumbnail:
		return "thumbnail"
	case KindTextLayer:
		return "textlayer"
	default:
		return "unknown"
	}
}
