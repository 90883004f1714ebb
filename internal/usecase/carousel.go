package usecase

// Direction of a carousel step
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// PlaceholderImage is shown when a product has no images
const PlaceholderImage = "/static/placeholder.png"

// StepIndex moves current one slide in direction, wrapping around length.
// length below 1 is treated as a single slide.
func StepIndex(current, length int, direction Direction) int {
	if length < 1 {
		length = 1
	}
	return ((current+int(direction))%length + length) % length
}

// Carousel is the cyclic image position for one product
type Carousel struct {
	productID string
	images    []string
	index     int
}

// CarouselView is the read-only render model of a carousel
type CarouselView struct {
	ProductID     string `json:"productId"`
	Index         int    `json:"index"`
	Count         int    `json:"count"`
	Image         string `json:"image"`
	IsPlaceholder bool   `json:"isPlaceholder"`
	ShowControls  bool   `json:"showControls"`
}

// NewCarousel starts a carousel at the first image
func NewCarousel(productID string, images []string) *Carousel {
	imgs := make([]string, len(images))
	copy(imgs, images)
	return &Carousel{productID: productID, images: imgs}
}

// ProductID returns the product the carousel belongs to
func (c *Carousel) ProductID() string {
	return c.productID
}

// ImageCount is the number of slides; an empty image list still has the placeholder slide
func (c *Carousel) ImageCount() int {
	return max(1, len(c.images))
}

// Index returns the current slide
func (c *Carousel) Index() int {
	return c.index
}

// Advance moves to the next slide, wrapping to the first
func (c *Carousel) Advance() {
	c.index = StepIndex(c.index, c.ImageCount(), Forward)
}

// Retreat moves to the previous slide, wrapping to the last
func (c *Carousel) Retreat() {
	c.index = StepIndex(c.index, c.ImageCount(), Backward)
}

// ShowControls reports whether navigation should be rendered
func (c *Carousel) ShowControls() bool {
	return c.ImageCount() > 1
}

// View returns the render model for the current slide
func (c *Carousel) View() CarouselView {
	view := CarouselView{
		ProductID:    c.productID,
		Index:        c.index,
		Count:        c.ImageCount(),
		ShowControls: c.ShowControls(),
	}
	if len(c.images) == 0 {
		view.Image = PlaceholderImage
		view.IsPlaceholder = true
	} else {
		view.Image = c.images[c.index]
	}
	return view
}
