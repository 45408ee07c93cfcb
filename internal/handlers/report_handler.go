package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles report download requests.
type ReportHandler struct {
	reportService services.ReportServicer
	userService   services.UserServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, userService services.UserServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, userService: userService}
}

// DownloadExcel streams the caller's full monthly report workbook.
// The workbook is buffered before any header is written so a generation
// failure never leaks a partial document.
// @Summary     Download Excel report
// @Description Download the caller's complete history as a multi-sheet workbook
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200 {file} file "Workbook attachment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Generation failed"
// @Router      /reports/excel [get]
func (h *ReportHandler) DownloadExcel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workbook, err := h.reportService.MonthlyWorkbook(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrReportGeneration, err))
		return
	}

	filename := services.ReportFilename(user.Username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
