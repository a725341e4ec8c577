package server

import (
	"stoop/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ServeImage handles GET /images/:file. The filename is validated against the
// stored-name shape before touching the filesystem.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	path, err := s.imageService.Resolve(c.Params("file"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.SendFile(path)
}
