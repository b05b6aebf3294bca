// internal/models/partner.go
package models

// Segment is the business category a partner operates in.
type Segment string

const (
	SegmentHealth    Segment = "SAÚDE"
	SegmentBeauty    Segment = "BELEZA E BEM ESTAR"
	SegmentPet       Segment = "PET"
	SegmentHome      Segment = "CASA"
	SegmentAuto      Segment = "VEÍCULOS"
	SegmentEducation Segment = "EDUCAÇÃO"
	SegmentFitness   Segment = "FITNESS"
	SegmentFood      Segment = "ALIMENTAÇÃO E BEBIDAS"
	SegmentLeisure   Segment = "LAZER E CINEMA"
	SegmentOther     Segment = "OUTROS"
)

// Segments lists every segment in declaration order.
var Segments = []Segment{
	SegmentHealth,
	SegmentBeauty,
	SegmentPet,
	SegmentHome,
	SegmentAuto,
	SegmentEducation,
	SegmentFitness,
	SegmentFood,
	SegmentLeisure,
	SegmentOther,
}

func (s Segment) Valid() bool {
	for _, known := range Segments {
		if s == known {
			return true
		}
	}
	return false
}

// ContractStatus is the lifecycle state of a partner contract.
type ContractStatus string

const (
	StatusActive      ContractStatus = "Ativo"
	StatusUnderReview ContractStatus = "Em Análise"
	StatusAtRisk      ContractStatus = "Risco de Cancelamento"
)

var ContractStatuses = []ContractStatus{StatusActive, StatusUnderReview, StatusAtRisk}

func (s ContractStatus) Valid() bool {
	return s == StatusActive || s == StatusUnderReview || s == StatusAtRisk
}

// ContractDateLayout is the calendar-date format used for ContractStart.
const ContractDateLayout = "2006-01-02"

const (
	MinUsageScore = 0
	MaxUsageScore = 100
)

// Partner is one record of the partner network. Records are replaced as a
// whole on update; IsTop20 is owned by the store's tier policy.
type Partner struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Location       string         `json:"location" yaml:"location"`
	Segment        Segment        `json:"segment" yaml:"segment"`
	ContractStart  string         `json:"contractStart" yaml:"contractStart"`
	UsageScore     int            `json:"usageScore" yaml:"usageScore"`
	MonthlyRevenue float64        `json:"monthlyRevenue" yaml:"monthlyRevenue"`
	Benefits       []string       `json:"benefits" yaml:"benefits"`
	Status         ContractStatus `json:"status" yaml:"status"`
	IsOnWebsite    bool           `json:"isOnWebsite" yaml:"isOnWebsite"`
	IsTop20        bool           `json:"isTop20" yaml:"isTop20"`
}

// Clone returns a copy that shares no slices with p.
func (p Partner) Clone() Partner {
	out := p
	if p.Benefits != nil {
		out.Benefits = append([]string(nil), p.Benefits...)
	}
	return out
}

// PartnerDraft carries the caller-supplied fields of a new partner. The store
// assigns the identifier, contract start date and tier flag.
type PartnerDraft struct {
	Name           string         `json:"name"`
	Location       string         `json:"location"`
	Segment        Segment        `json:"segment"`
	UsageScore     int            `json:"usageScore"`
	MonthlyRevenue float64        `json:"monthlyRevenue"`
	Benefits       []string       `json:"benefits"`
	Status         ContractStatus `json:"status"`
	IsOnWebsite    bool           `json:"isOnWebsite"`
}

// ToPartner materialises the draft under the given id and start date.
func (d PartnerDraft) ToPartner(id, contractStart string) Partner {
	return Partner{
		ID:             id,
		Name:           d.Name,
		Location:       d.Location,
		Segment:        d.Segment,
		ContractStart:  contractStart,
		UsageScore:     d.UsageScore,
		MonthlyRevenue: d.MonthlyRevenue,
		Benefits:       append([]string(nil), d.Benefits...),
		Status:         d.Status,
		IsOnWebsite:    d.IsOnWebsite,
	}
}
