package dto

import (
	"kgv/internal/core/types"
	"kgv/internal/domain/district"
)

// CreateDistrictRequest for POST /districts.
type CreateDistrictRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	CadastralCode *string `json:"cadastralCode"`
}

// ToDistrict converts the request into a domain district.
func (r *CreateDistrictRequest) ToDistrict() *district.District {
	return &district.District{
		Code:          r.Code,
		Name:          r.Name,
		CadastralCode: r.CadastralCode,
	}
}

// CreatePlotRequest for POST /districts/:id/plots.
type CreatePlotRequest struct {
	Number   string `json:"number" binding:"required"`
	Area     string `json:"area"`
	LeaseFee string `json:"leaseFee"`
}

// ToPlot converts the request into a domain plot. Area and lease fee arrive
// as decimal strings to avoid float rounding on the wire.
func (r *CreatePlotRequest) ToPlot() (*district.Plot, error) {
	p := &district.Plot{Number: r.Number}

	if r.Area != "" {
		area, err := types.NewDecimalFromString(r.Area)
		if err != nil {
			return nil, err
		}
		p.Area = area
	}
	if r.LeaseFee != "" {
		fee, err := types.NewDecimalFromString(r.LeaseFee)
		if err != nil {
			return nil, err
		}
		p.LeaseFee = fee
	}

	return p, nil
}
