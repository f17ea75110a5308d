package productcontroller

import (
	"context"
	"net/http"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

const sheetName = "Products"

// sheetHeaders is the column layout shared by export and import. Import
// reads the first eight columns only.
var sheetHeaders = []string{
	"ID", "Name", "Category", "PhotoURL", "Quantity", "Description",
	"Price", "Discount", "CreatedAt", "UpdatedAt",
}

// ExportExcel builds a workbook with one row per product.
func ExportExcel(ctx context.Context, db *gorm.DB, access auth.AccessContext) (*xlsx.File, error) {
	if err := auth.Authorize(access, models.RolePrivileged); err != nil {
		return nil, err
	}
	products, err := ListAll(ctx, db)
	if err != nil {
		return nil, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range sheetHeaders {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.PhotoURL)
		row.AddCell().SetInt(p.Quantity)
		row.AddCell().SetString(p.Description)
		// money stays text so it round-trips without float rounding
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(p.Discount.StringFixed(2))
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

// ExportProductsToExcel handles GET /products/export.
func ExportProductsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := ExportExcel(c.Request.Context(), db, auth.Access(c))
		if err != nil {
			render.Error(c, err)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Status(http.StatusOK)

		if err := file.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
