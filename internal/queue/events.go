package queue

import "go.mongodb.org/mongo-driver/bson/primitive"

// Routing keys on the topic exchange.
const (
	KeyUserRegistered  = "user.registered"
	KeyUserLoggedIn    = "user.loggedin"
	KeyCourseGenerated = "course.generated"
)

type UserRegistered struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
	Name   string             `json:"name"`
}

type UserLoggedIn struct {
	UserID primitive.ObjectID `json:"user_id"`
	Email  string             `json:"email"`
}

type CourseGenerated struct {
	CourseID string `json:"course_id"`
	Topic    string `json:"topic"`
	Format   string `json:"format"`
	UserID   string `json:"user_id,omitempty"`
}
