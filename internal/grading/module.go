package grading

type Module struct {
	Svc Service
}
