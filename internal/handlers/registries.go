package handlers

import (
	"fmt"
	"time"

	"office-portal/internal/appcontext"
	"office-portal/internal/forms"
	"office-portal/internal/models"

	"github.com/gin-gonic/gin"
)

var supervisors = []models.UserRole{models.RoleAdmin, models.RoleManager}

func organizationOptions(app *appcontext.Context) func(*gin.Context) (gin.H, error) {
	return func(c *gin.Context) (gin.H, error) {
		var orgs []models.Organization
		if err := app.DB.WithContext(c.Request.Context()).Order("name asc").Find(&orgs).Error; err != nil {
			return nil, err
		}
		return gin.H{"orgs": orgs}, nil
	}
}

func userOptions(app *appcontext.Context) func(*gin.Context) (gin.H, error) {
	return func(c *gin.Context) (gin.H, error) {
		var users []models.User
		if err := app.DB.WithContext(c.Request.Context()).Order("username asc").Find(&users).Error; err != nil {
			return nil, err
		}
		return gin.H{"users": users}, nil
	}
}

// taken сообщает, занято ли значение column другой записью (не id).
func taken(c *gin.Context, app *appcontext.Context, model any, column string, value any, id uint) (bool, error) {
	var count int64
	err := app.DB.WithContext(c.Request.Context()).Model(model).
		Where(column+" = ? AND id <> ?", value, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check unique %s: %w", column, err)
	}
	return count > 0, nil
}

// VehicleResource — служебный транспорт.
func VehicleResource(app *appcontext.Context) *Resource[models.Vehicle] {
	return &Resource[models.Vehicle]{
		Name:       "vehicles",
		Path:       "/vehicles",
		Label:      "Transport",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Deletable:  true,
		Order:      "plate_number asc",
		Preloads:   []string{"Organization"},
		FormData:   organizationOptions(app),
		Bind: func(c *gin.Context, f forms.Form, v *models.Vehicle) error {
			plate := f.OptionalString("plate_number")
			if plate != nil {
				dup, err := taken(c, app, &models.Vehicle{}, "plate_number", *plate, v.ID)
				if err != nil {
					return err
				}
				if dup {
					return FormError("Bu davlat raqamli transport allaqachon mavjud")
				}
			}

			v.PlateNumber = plate
			v.CarModel = f.String("model")
			v.DriverFullName = f.String("driver_full_name")
			v.MonthlyFuelLimit = f.Float("monthly_fuel_limit")
			v.LastRepairDate = f.Date("last_repair_date")
			v.LastRepairStatus = f.String("last_repair_status")
			v.OrganizationID = f.ID("organization_id")
			return nil
		},
		Files: []FileField[models.Vehicle]{{
			Form: "image",
			Get:  func(v *models.Vehicle) string { return v.ImagePath },
			Set:  func(v *models.Vehicle, name string) { v.ImagePath = name },
		}},
	}
}

func OrganizationResource(app *appcontext.Context) *Resource[models.Organization] {
	return &Resource[models.Organization]{
		Name:       "orgs",
		Path:       "/organizations",
		Label:      "Tizim tashkiloti",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "name asc",
		Bind: func(c *gin.Context, f forms.Form, o *models.Organization) error {
			name := f.String("name")
			if name == "" {
				return FormError("Tashkilot nomini kiriting")
			}
			o.Name = name
			o.EmployeeCount = f.Int("employee_count")
			o.Address = f.String("address")
			o.Floor = f.String("floor")
			o.Comment = f.String("comment")
			return nil
		},
		DetailData: func(c *gin.Context, o *models.Organization) (gin.H, error) {
			var vehicles []models.Vehicle
			if err := app.DB.WithContext(c.Request.Context()).
				Where("organization_id = ?", o.ID).
				Order("plate_number asc").
				Find(&vehicles).Error; err != nil {
				return nil, err
			}
			return gin.H{"vehicles": vehicles}, nil
		},
	}
}

func OutsourceResource(app *appcontext.Context) *Resource[models.OutsourceCompany] {
	return &Resource[models.OutsourceCompany]{
		Name:       "outsourcing",
		Path:       "/outsourcing",
		Label:      "Outsorsing tashkiloti",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "name asc",
		Preloads:   []string{"Employees"},
		Bind: func(c *gin.Context, f forms.Form, o *models.OutsourceCompany) error {
			name := f.String("name")
			if name == "" {
				return FormError("Tashkilot nomini kiriting")
			}
			o.Name = name
			o.ServiceType = f.String("service_type")
			o.ContractNumber = f.String("contract_number")
			o.ContractDate = f.Date("contract_date")
			o.ContractAmount = f.Float("contract_amount")
			o.Comment = f.String("comment")
			return nil
		},
	}
}

func OrgTechResource(app *appcontext.Context) *Resource[models.OrgTech] {
	return &Resource[models.OrgTech]{
		Name:       "orgtech",
		Path:       "/orgtech",
		Label:      "Orgtexnika",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "id asc",
		Preloads:   []string{"AssignedTo"},
		FormData:   userOptions(app),
		Bind: func(c *gin.Context, f forms.Form, d *models.OrgTech) error {
			status := models.OrgTechStatus(f.String("status"))
			if !status.Valid() {
				status = models.OrgTechNew
			}
			d.Name = f.String("name")
			d.DeviceModel = f.String("model")
			d.SerialNumber = f.String("serial_number")
			d.Status = status
			d.AssignedToID = f.ID("assigned_to_id")
			d.LastUpdate = time.Now().UTC()
			return nil
		},
	}
}

func SolarResource(app *appcontext.Context) *Resource[models.SolarSite] {
	return &Resource[models.SolarSite]{
		Name:       "solar",
		Path:       "/solar",
		Label:      "Quyosh stansiyasi",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "name asc",
		Bind: func(c *gin.Context, f forms.Form, s *models.SolarSite) error {
			name := f.String("name")
			if name == "" {
				return FormError("Stansiya nomini kiriting")
			}
			s.Name = name
			s.ExternalURL = f.String("external_url")
			s.CapacityKW = f.Float("capacity_kw")
			return nil
		},
		DetailData: func(c *gin.Context, s *models.SolarSite) (gin.H, error) {
			var readings []models.SolarReading
			if err := app.DB.WithContext(c.Request.Context()).
				Where("site_id = ?", s.ID).
				Order("date desc").
				Find(&readings).Error; err != nil {
				return nil, err
			}
			return gin.H{"readings": readings}, nil
		},
	}
}

func ContractResource(app *appcontext.Context) *Resource[models.Contract] {
	return &Resource[models.Contract]{
		Name:       "contracts",
		Path:       "/contracts",
		Label:      "Shartnoma",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "created_at desc",
		Bind: func(c *gin.Context, f forms.Form, k *models.Contract) error {
			k.Title = f.String("title")
			k.Amount = f.Float("amount")
			k.Status = f.String("status")
			return nil
		},
	}
}

func ProfileResource(app *appcontext.Context) *Resource[models.EmployeeProfile] {
	doc := func(form string, get func(*models.EmployeeProfile) *string) FileField[models.EmployeeProfile] {
		return FileField[models.EmployeeProfile]{
			Form: form,
			Get:  func(p *models.EmployeeProfile) string { return *get(p) },
			Set:  func(p *models.EmployeeProfile, name string) { *get(p) = name },
		}
	}

	return &Resource[models.EmployeeProfile]{
		Name:       "profiles",
		Path:       "/hr/profiles",
		Label:      "Xodim kartasi",
		ViewRoles:  supervisors,
		WriteRoles: supervisors,
		Order:      "full_name asc",
		Preloads:   []string{"User"},
		FormData:   userOptions(app),
		Bind: func(c *gin.Context, f forms.Form, p *models.EmployeeProfile) error {
			userID := f.ID("user_id")
			if userID != nil {
				dup, err := taken(c, app, &models.EmployeeProfile{}, "user_id", *userID, p.ID)
				if err != nil {
					return err
				}
				if dup {
					return FormError("Bu foydalanuvchi uchun karta allaqachon mavjud")
				}
			}

			p.UserID = userID
			p.FullName = f.String("full_name")
			p.PassportInfo = f.String("passport_info")
			p.DiplomaInfo = f.String("diploma_info")
			p.OtherDocs = f.String("other_docs")
			return nil
		},
		Files: []FileField[models.EmployeeProfile]{
			doc("passport_file", func(p *models.EmployeeProfile) *string { return &p.PassportFile }),
			doc("diploma_file", func(p *models.EmployeeProfile) *string { return &p.DiplomaFile }),
			doc("other_file", func(p *models.EmployeeProfile) *string { return &p.OtherFile }),
		},
	}
}
