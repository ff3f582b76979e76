package content

import (
	"fmt"
	"strings"

	"clinicbot/services/conversation"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
)

// Config is the clinic's static content as configured. Images are Cloudinary
// public ids or absolute URLs.
type Config struct {
	ClinicName     string
	LocationURL    string
	OfferImages    []string
	DoctorImages   []string
	CloudName      string
	APIKey         string
	APISecret      string
	Transformation string
}

// ImageResolver turns a Cloudinary public id into a delivery URL.
type ImageResolver struct {
	cld            *cloudinary.Cloudinary
	transformation string
}

func NewImageResolver(cloudName, apiKey, apiSecret, transformation string) (*ImageResolver, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("content: failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &ImageResolver{cld: cld, transformation: transformation}, nil
}

// URL returns the delivery URL for ref. Absolute URLs are returned unchanged.
func (r *ImageResolver) URL(ref string) (string, error) {
	if isAbsoluteURL(ref) {
		return ref, nil
	}
	img, err := r.cld.Image(ref)
	if err != nil {
		return "", fmt.Errorf("content: image %q: %w", ref, err)
	}
	img.Transformation = r.transformation
	return img.String()
}

// Build resolves the configured images into the content the engine sends.
// Images that cannot be resolved are skipped.
func Build(cfg Config, logger *zap.Logger) conversation.Content {
	var resolver *ImageResolver
	if cfg.CloudName != "" {
		r, err := NewImageResolver(cfg.CloudName, cfg.APIKey, cfg.APISecret, cfg.Transformation)
		if err != nil {
			logger.Warn("Cloudinary unavailable, only absolute image URLs will be used", zap.Error(err))
		} else {
			resolver = r
		}
	}

	resolve := func(refs []string) []string {
		urls := make([]string, 0, len(refs))
		for _, ref := range refs {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			if isAbsoluteURL(ref) {
				urls = append(urls, ref)
				continue
			}
			if resolver == nil {
				logger.Warn("Skipping image public id without Cloudinary config", zap.String("public_id", ref))
				continue
			}
			u, err := resolver.URL(ref)
			if err != nil {
				logger.Warn("Skipping unresolvable image", zap.String("public_id", ref), zap.Error(err))
				continue
			}
			urls = append(urls, u)
		}
		return urls
	}

	return conversation.Content{
		ClinicName:      cfg.ClinicName,
		LocationURL:     cfg.LocationURL,
		OfferImageURLs:  resolve(cfg.OfferImages),
		DoctorImageURLs: resolve(cfg.DoctorImages),
	}
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
