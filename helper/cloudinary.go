package helper

import (
	"log"
	"os"
	"sync"

	"github.com/cloudinary/cloudinary-go/v2"
)

var (
	cld     *cloudinary.Cloudinary
	cldOnce sync.Once
)

func InitCloudinary() *cloudinary.Cloudinary {
	cldOnce.Do(func() {
		var err error
		cld, err = cloudinary.NewFromParams(
			os.Getenv("CLOUDINARY_CLOUD_NAME"),
			os.Getenv("CLOUDINARY_API_KEY"),
			os.Getenv("CLOUDINARY_API_SECRET"),
		)
		if err != nil {
			log.Fatalf("Cloudinary init failed: %v", err)
		}
	})
	return cld
}
