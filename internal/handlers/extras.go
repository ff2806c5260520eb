package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"office-portal/internal/appcontext"
	"office-portal/internal/forms"
	"office-portal/internal/models"
	"office-portal/internal/registry"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func datatypesDate(t time.Time) datatypes.Date {
	return datatypes.Date(forms.Day(t))
}

// AddSolarReading: POST /solar/:id/readings: суточная выработка станции.
func AddSolarReading(app *appcontext.Context) gin.HandlerFunc {
	sites := registry.NewStore[models.SolarSite](app.DB)
	readings := registry.NewStore[models.SolarReading](app.DB)

	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		site, err := sites.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			notFound(c)
			return
		}
		if err != nil {
			internalError(app, c, err, "failed to load solar site")
			return
		}

		f := forms.New(c.PostForm)
		reading := models.SolarReading{
			SiteID:    site.ID,
			Date:      f.DateOr("date", time.Now()),
			EnergyKWh: f.Float("energy_kwh"),
		}
		if err := readings.Create(&reading); err != nil {
			internalError(app, c, err, "failed to add solar reading")
			return
		}

		redirectWithFlash(c, fmt.Sprintf("/solar/%d", site.ID), "Ko'rsatkich qo'shildi")
	}
}

// AddOutsourceEmployee: POST /outsourcing/:id/employees.
func AddOutsourceEmployee(app *appcontext.Context) gin.HandlerFunc {
	companies := registry.NewStore[models.OutsourceCompany](app.DB)
	employees := registry.NewStore[models.OutsourceEmployee](app.DB)

	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		company, err := companies.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			notFound(c)
			return
		}
		if err != nil {
			internalError(app, c, err, "failed to load outsource company")
			return
		}

		f := forms.New(c.PostForm)
		fullName := f.String("full_name")
		if fullName == "" {
			c.String(http.StatusBadRequest, "F.I.Sh. kiriting")
			return
		}
		emp := models.OutsourceEmployee{
			CompanyID: company.ID,
			FullName:  fullName,
			Position:  f.String("position"),
			Phone:     f.String("phone"),
		}
		if err := employees.Create(&emp); err != nil {
			internalError(app, c, err, "failed to add outsource employee")
			return
		}

		redirectWithFlash(c, fmt.Sprintf("/outsourcing/%d", company.ID), "Xodim qo'shildi")
	}
}
