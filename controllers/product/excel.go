package productcontroller

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type ImportReport struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ImportExcel reads the first sheet of a workbook in the export layout. Rows
// whose ID names an existing product update it, other rows create products.
// Malformed or conflicting rows are skipped and counted.
func ImportExcel(ctx context.Context, db *gorm.DB, access auth.AccessContext, r io.ReaderAt, size int64) (ImportReport, error) {
	var report ImportReport
	if err := auth.Authorize(access, models.RolePrivileged); err != nil {
		return report, err
	}

	xlFile, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return report, apperrors.Invalid("failed to parse Excel file: %v", err)
	}
	if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
		return report, apperrors.Invalid("Excel file is empty or missing header row")
	}

	tx := db.WithContext(ctx)
	sheet := xlFile.Sheets[0]
	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		if row == nil {
			report.Skipped++
			continue
		}
		id, in, ok := parseRow(row)
		if !ok {
			report.Skipped++
			continue
		}

		updated, err := importRow(tx, id, in)
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, apperrors.ErrInvalidArgument):
			report.Skipped++
		case err != nil:
			return report, err
		case updated:
			report.Updated++
		default:
			report.Created++
		}
	}
	return report, nil
}

func parseRow(row *xlsx.Row) (uint, ProductInput, bool) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	var id uint
	if raw := get(0); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, ProductInput{}, false
		}
		id = uint(n)
	}

	name := get(1)
	price, err := decimal.NewFromString(get(6))
	if name == "" || err != nil {
		return 0, ProductInput{}, false
	}
	discount := decimal.Zero
	if raw := get(7); raw != "" {
		if discount, err = decimal.NewFromString(raw); err != nil {
			return 0, ProductInput{}, false
		}
	}
	quantity := 0
	if raw := get(4); raw != "" {
		// spreadsheets store every number as a float
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
			return 0, ProductInput{}, false
		}
		quantity = int(f)
	}

	category, photo, description := get(2), get(3), get(5)
	return id, ProductInput{
		Name:        &name,
		Category:    &category,
		PhotoURL:    &photo,
		Quantity:    &quantity,
		Description: &description,
		Price:       &price,
		Discount:    &discount,
	}, true
}

// importRow reports whether an existing product was updated.
func importRow(db *gorm.DB, id uint, in ProductInput) (bool, error) {
	var product models.Product
	updated := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if id != 0 {
			err := tx.First(&product, id).Error
			switch {
			case err == nil:
				updated = true
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if !updated {
			product = models.Product{}
		}
		in.apply(&product)
		if err := validate(product); err != nil {
			return err
		}
		return tx.Save(&product).Error
	})
	return updated, err
}

// ImportProductsFromExcel handles POST /products/import (multipart field "file").
func ImportProductsFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			render.Error(c, apperrors.Invalid("Excel file is required"))
			return
		}
		file, err := excelFileHeader.Open()
		if err != nil {
			render.Error(c, err)
			return
		}
		defer file.Close()

		report, err := ImportExcel(c.Request.Context(), db, auth.Access(c), file, excelFileHeader.Size)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": report.Created,
			"updated_count": report.Updated,
			"skipped_count": report.Skipped,
		})
	}
}
