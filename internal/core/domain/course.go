package domain

// Course is the aggregate root owned by the course service. Deleting a course
// cascades to its instances in the instance service.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CourseCode  string `json:"courseCode"`
	Description string `json:"description"`
}

// CourseInstance is a delivery of a course in a given year and semester,
// owned by the instance service and keyed back to the course by ID.
type CourseInstance struct {
	ID       string `json:"id"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
	CourseID string `json:"courseId"`
}
