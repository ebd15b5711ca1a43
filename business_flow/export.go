package businessflow

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/amirphl/filterkit/fields"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/utils"
	"github.com/xuri/excelize/v2"
)

const filtersSheetName = "Filters"

var campaignExportHeader = []string{"uuid", "title", "status", "segment", "city", "budget", "archived", "customer", "schedule_at", "created_at"}

// renderCampaignsXLSX writes campaigns to the first sheet and the filters
// that produced them to a second one
func renderCampaignsXLSX(campaigns []*models.Campaign, res *filterset.Result, fs *filterset.FilterSet) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	xl.SetSheetName(xl.GetSheetName(0), utils.ExportSheetName)
	header := slices.Clone(campaignExportHeader)
	if err := xl.SetSheetRow(utils.ExportSheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, c := range campaigns {
		customer := ""
		if c.Customer != nil {
			customer = c.Customer.Email
		}
		record := []string{
			c.UUID.String(),
			c.Title,
			c.Status.DisplayName(),
			c.Segment,
			utils.Deref(c.City),
			c.Budget.StringFixed(2),
			strconv.FormatBool(c.Archived),
			customer,
			utils.FormatTimePtr(c.ScheduleAt),
			utils.FormatTimePtr(&c.CreatedAt),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(utils.ExportSheetName, cellRef, &record); err != nil {
			return nil, err
		}
	}

	if _, err := xl.NewSheet(filtersSheetName); err != nil {
		return nil, err
	}
	filterHeader := []string{"filter", "value"}
	if err := xl.SetSheetRow(filtersSheetName, "A1", &filterHeader); err != nil {
		return nil, err
	}
	row := 2
	for _, f := range fs.Filters() {
		if !res.IsUsed(f.Name()) {
			continue
		}
		record := []string{f.Name(), formatFilterValue(res.Values[f.Name()])}
		cellRef, _ := excelize.CoordinatesToCellName(1, row)
		if err := xl.SetSheetRow(filtersSheetName, cellRef, &record); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFilterValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, formatFilterValue(p))
		}
		return strings.Join(parts, ", ")
	case fields.Selection:
		if val.All {
			return "all"
		}
		return formatFilterValue(val.Values)
	case fields.DateOffset:
		return fmt.Sprintf("%d days", val.Days())
	case lookup.Lookup:
		return val.Type.String() + " " + formatFilterValue(val.Value)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
