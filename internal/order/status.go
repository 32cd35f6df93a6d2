package order

// Status is an order lifecycle state. The persisted value is the
// canonical English token; the storefront renders the Vietnamese label.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var validNext = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipping},
	StatusShipping:   {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// DisplayVI maps each status to the label shown to customers.
var DisplayVI = map[Status]string{
	StatusPending:    "Chờ xác nhận",
	StatusProcessing: "Đang xử lý",
	StatusShipping:   "Đang giao hàng",
	StatusCompleted:  "Đã giao hàng",
	StatusCancelled:  "Đã hủy",
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransitionTo reports whether next is a legal move from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Display returns the customer-facing label, falling back to the raw
// token for unknown states.
func (s Status) Display() string {
	if label, ok := DisplayVI[s]; ok {
		return label
	}
	return string(s)
}
