package handlers

import (
	"net/http"

	"github.com/evently-hq/evently-backend/internal/config"
	"github.com/evently-hq/evently-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

// UploadFile handles event cover image uploads to Cloudinary.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if cloudinaryService == nil {
		respondMessage(w, http.StatusServiceUnavailable, "Uploads are not available")
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "evently/events"
	}

	url, err := cloudinaryService.UploadImageFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"url": url,
	})
}
