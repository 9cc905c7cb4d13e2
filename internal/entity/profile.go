package entity

type Profile struct {
	ID       string  `json:"id"`
	FullName *string `json:"full_name"`
	Points   int64   `json:"points"`
}

type Admin struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
