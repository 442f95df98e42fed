package domain

const MaxImages = 20

// UploadedImage is what the image upload collaborator returns per accepted file.
type UploadedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
}

// AddImage appends an uploaded image. The first image becomes the main one.
func (c *Candidate) AddImage(u UploadedImage) error {
	if len(c.Images) >= MaxImages {
		return ErrTooManyImages
	}
	c.Images = append(c.Images, Image{URL: u.URL, PublicID: u.PublicID})
	c.NormalizeImages()
	return nil
}

func (c *Candidate) RemoveImage(i int) error {
	if i < 0 || i >= len(c.Images) {
		return ErrIndexOutOfRange
	}
	c.Images = append(c.Images[:i:i], c.Images[i+1:]...)
	c.NormalizeImages()
	return nil
}

func (c *Candidate) SetMainImage(i int) error {
	if i < 0 || i >= len(c.Images) {
		return ErrIndexOutOfRange
	}
	for k := range c.Images {
		c.Images[k].IsMain = k == i
	}
	return nil
}

// MoveImage moves the image at from to position to, keeping the main flag with the image.
func (c *Candidate) MoveImage(from, to int) error {
	n := len(c.Images)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	img := c.Images[from]
	rest := append(c.Images[:from:from], c.Images[from+1:]...)
	out := make([]Image, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, img)
	out = append(out, rest[to:]...)
	c.Images = out
	c.NormalizeImages()
	return nil
}

// NormalizeImages restores the list invariants: order is the dense 0-based
// position and exactly one image (the first flagged, else the first) is main.
func (c *Candidate) NormalizeImages() {
	NormalizeImageList(c.Images)
}

// NormalizeImageList applies the image invariants in place.
func NormalizeImageList(imgs []Image) {
	main := -1
	for i := range imgs {
		imgs[i].Order = i
		if imgs[i].IsMain && main < 0 {
			main = i
		}
	}
	if len(imgs) > 0 && main < 0 {
		main = 0
	}
	for i := range imgs {
		imgs[i].IsMain = i == main
	}
}
