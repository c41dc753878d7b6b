package main

import (
	"fmt"
	"os"

	"github.com/ashokshau/qrcanvas"
)

// printNavigator stands in for a browser: it prints the link it would open.
type printNavigator struct{}

func (printNavigator) Open(target string) error {
	fmt.Printf("Opening in a new tab: %s\n", target)
	return nil
}

func main() {
	// The content to encode
	content := "https://www.google.com"
	filename := "test_qr.png"

	fmt.Printf("Generating QR code for: %s\n", content)

	// LevelM is a good balance (15% error correction).
	// Each module is 5x5 pixels with a 10 pixel margin.
	r := qrcanvas.NewRenderer()
	img, err := r.Render(content, qrcanvas.LevelM, 5, 10)
	if err != nil {
		// img is the fallback surface; it is still worth saving.
		fmt.Printf("Falling back: %v\n", err)
	} else {
		fmt.Printf("Version %d, %d modules, %dpx\n", img.QR.Version, img.QR.Size, img.Bounds().Dx())
	}

	file, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Error creating file: %v\n", err)
		return
	}
	defer file.Close()

	if err := img.WritePNG(file); err != nil {
		fmt.Printf("Error writing PNG: %v\n", err)
		return
	}
	fmt.Printf("Successfully saved QR code to %s\n", filename)

	// Simulate a click on the image.
	if err := img.Activate(printNavigator{}); err != nil {
		fmt.Printf("Not clickable: %v\n", err)
	}
}
