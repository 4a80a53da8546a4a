package entities

type BranchRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Address string `json:"address" validate:"required,max=250"`
	City    string `json:"city" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type VehicleRequest struct {
	BranchID  string `json:"branchId" validate:"required,uuid4"`
	Make      string `json:"make" validate:"required,max=60"`
	Model     string `json:"model" validate:"required,max=60"`
	Year      int    `json:"year" validate:"required,min=1950,max=2100"`
	Plate     string `json:"plate" validate:"required,max=20"`
	DailyRate int64  `json:"dailyRate" validate:"required,gt=0"`
}
