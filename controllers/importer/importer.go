package importer

import (
	"errors"
	"io"

	"puretrack/errs"
	"puretrack/live"
	"puretrack/logger"
	importerService "puretrack/services/importer"
	"puretrack/types"
	importerTypes "puretrack/types/importer"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// maxUploadBytes caps spreadsheet uploads at 20 MB.
const maxUploadBytes = 20 << 20

type ImporterController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
	hub            *live.Hub
}

func NewImporterController(db *gorm.DB, async_logger *logger.AsyncLogger, hub *live.Hub) *ImporterController {
	return &ImporterController{db: db, loggerInstance: async_logger, hub: hub}
}

// Preview classifies every row of an uploaded spreadsheet without writing
// anything. The classification matches what Execute would do with the same
// file against the same database state.
func (h *ImporterController) Preview(c *fiber.Ctx) error {
	content, errResp := h.readUpload(c)
	if errResp != nil {
		return errResp
	}

	rows, columns, err := importerService.Parse(content)
	if err != nil {
		return h.importError(c, err)
	}

	result, err := importerService.Preview(h.db, rows)
	if err != nil {
		return h.importError(c, err)
	}
	result.ColumnsFound = columns

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Import preview generated successfully",
		Status:  fiber.StatusOK,
		Data:    result,
	})
}

// Execute reconciles an uploaded spreadsheet into the shipment table. Mode
// create_only never touches existing shipments; update_or_create merges
// non-blank cells into them.
func (h *ImporterController) Execute(c *fiber.Ctx) error {
	mode := c.FormValue("mode", importerTypes.ModeUpdateOrCreate)
	if !importerTypes.IsValidMode(mode) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Unknown import mode", Status: fiber.StatusBadRequest,
		})
	}

	content, errResp := h.readUpload(c)
	if errResp != nil {
		return errResp
	}

	rows, _, err := importerService.Parse(content)
	if err != nil {
		return h.importError(c, err)
	}

	result, err := importerService.Execute(h.db, rows, mode)
	if err != nil {
		return h.importError(c, err)
	}

	if result.Created > 0 || result.Updated > 0 {
		h.hub.Broadcast("import_completed")
	}
	logger.Infof("Import executed: %d created, %d updated, %d skipped, %d errors",
		result.Created, result.Updated, result.Skipped, len(result.Errors))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Import executed successfully",
		Status:  fiber.StatusOK,
		Data:    result,
	})
}

func (h *ImporterController) readUpload(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "A spreadsheet file is required", Status: fiber.StatusBadRequest,
		})
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, c.Status(fiber.StatusRequestEntityTooLarge).JSON(types.ApiResponse{
			Message: "File exceeds the 20 MB upload limit", Status: fiber.StatusRequestEntityTooLarge,
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Could not open uploaded file", Status: fiber.StatusBadRequest,
		})
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Could not read uploaded file", Status: fiber.StatusBadRequest,
		})
	}
	return content, nil
}

func (h *ImporterController) importError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errs.ErrValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: errs.Message(err), Status: fiber.StatusBadRequest,
		})
	}
	logger.Error("Import failed", err)
	return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
		Message: "Import failed", Status: fiber.StatusInternalServerError,
	})
}
