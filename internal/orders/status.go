package orders

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipping   Status = "Shipping"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}
