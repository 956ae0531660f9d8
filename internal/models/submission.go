package models

import "time"

// Submission statuses. A submission leaves pending at most once and the
// resulting state is terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Review actions accepted from the admin dashboard.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// BeamFeatures is the feature vector of one experimental beam record.
// Bounds match the intake form's limits.
type BeamFeatures struct {
	HeightMM            float64 `db:"h_mm" json:"h_mm" validate:"gt=0,lte=10000"`
	DepthMM             float64 `db:"d_mm" json:"d_mm" validate:"gt=0,lte=10000"`
	WidthMM             float64 `db:"b_mm" json:"b_mm" validate:"gt=0,lte=10000"`
	ShearSpanMM         float64 `db:"a_mm" json:"a_mm" validate:"gt=0,lte=10000"`
	SpanDepthRatio      float64 `db:"abyd" json:"abyd" validate:"gt=0,lte=10"`
	ConcreteStrengthMPa float64 `db:"fck_mpa" json:"fck_Mpa" validate:"gt=0,lte=200"`
	ReinforcementRatio  float64 `db:"rho" json:"rho" validate:"gt=0,lte=0.1"`
	SteelYieldMPa       float64 `db:"fyk_mpa" json:"fyk_Mpa" validate:"gt=0,lte=1000"`
	AggregateSizeMM     float64 `db:"da_mm" json:"da_mm" validate:"gt=0,lte=200"`
	PlateTopMM          float64 `db:"plate_top_mm" json:"Plate_Top_mm" validate:"gt=0,lte=1000"`
	PlateBottomMM       float64 `db:"plate_bottom_mm" json:"Plate_Bottom_mm" validate:"gt=0,lte=1000"`
}

// BeamSample is a full trainable record: features plus the measured shear
// strength the model is trained to predict.
type BeamSample struct {
	BeamFeatures
	ShearStrengthKN float64 `db:"v_kn" json:"V_Kn" validate:"gt=0"`
}

// Submission is a contributor-provided beam record awaiting review.
// Submissions are never deleted; rollback undoes their corpus effect only.
type Submission struct {
	ID          string     `db:"id" json:"id"`
	Status      string     `db:"status" json:"status"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`

	// Contributor metadata, stored verbatim.
	ResearcherName  string `db:"researcher_name" json:"researcher_name"`
	ResearcherEmail string `db:"researcher_email" json:"researcher_email"`
	Institution     string `db:"institution" json:"institution"`
	Notes           string `db:"notes" json:"notes,omitempty"`

	BeamSample
}
