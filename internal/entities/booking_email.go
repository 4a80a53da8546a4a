package entities

type BookingEmailData struct {
	CustomerName       string
	BookingID          string
	Vehicle            string
	Plate              string
	StartDateFormatted string
	EndDateFormatted   string
	TotalFormatted     string
	PickupLocation     string
	DropoffLocation    string
	Status             string
	CurrentYear        int
}
