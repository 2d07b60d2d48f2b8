package handler

import (
	"github.com/madeeasy/coursehub/internal/core/domain"
)

// messageResponse is the envelope for operations that return no entity.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth types ---

type signUpRequest struct {
	FullName string   `json:"fullName" validate:"required"`
	Email    string   `json:"email"    validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Phone    string   `json:"phone"    validate:"required,len=10"`
	Roles    []string `json:"roles"    validate:"required,min=1,dive,required"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type logOutRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	AccessToken string `json:"accessToken" validate:"required"`
}

// partialUpdateRequest is shared by the auth and user partial updates. Every
// field is optional; absent fields leave the record untouched.
type partialUpdateRequest struct {
	FullName string   `json:"fullName"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Password string   `json:"password" validate:"omitempty,min=8"`
	Phone    string   `json:"phone" validate:"omitempty,len=10"`
	Roles    []string `json:"roles" validate:"omitempty,min=1,dive,required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toTokenPairResponse(pair *domain.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}

// --- User types ---

type createUserRequest struct {
	ID       string   `json:"id"`
	FullName string   `json:"fullName" validate:"required"`
	Email    string   `json:"email"    validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Phone    string   `json:"phone"    validate:"required,len=10"`
	Roles    []string `json:"roles"    validate:"required,min=1,dive,required"`
}

type userResponse struct {
	ID       string   `json:"id"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Roles    []string `json:"roles"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Roles:    domain.RoleNames(user.Roles),
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// userUpdateResponse carries the updated profile plus, when the identity
// changed, the regenerated token pair.
type userUpdateResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

// --- Course types ---

type courseRequest struct {
	Title       string `json:"title"       validate:"required"`
	CourseCode  string `json:"courseCode"  validate:"required"`
	Description string `json:"description"`
}

type courseResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CourseCode  string `json:"courseCode"`
	Description string `json:"description"`
}

func toCourseResponse(course *domain.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Title:       course.Title,
		CourseCode:  course.CourseCode,
		Description: course.Description,
	}
}

func toCourseResponses(courses []*domain.Course) []courseResponse {
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	return out
}

// --- Instance types ---

type instanceRequest struct {
	Year     int    `json:"year"     validate:"required,gte=1900"`
	Semester int    `json:"semester" validate:"required,gte=1,lte=12"`
	CourseID string `json:"courseId" validate:"required"`
}

type instanceResponse struct {
	ID       string `json:"id"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
	CourseID string `json:"courseId"`
}

func toInstanceResponse(instance *domain.CourseInstance) instanceResponse {
	return instanceResponse{
		ID:       instance.ID,
		Year:     instance.Year,
		Semester: instance.Semester,
		CourseID: instance.CourseID,
	}
}

func toInstanceResponses(instances []*domain.CourseInstance) []instanceResponse {
	out := make([]instanceResponse, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceResponse(i))
	}
	return out
}
