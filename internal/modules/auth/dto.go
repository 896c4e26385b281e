package auth

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SignupRequest is the API signup body.
type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150,username"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=128"`
}

// SignupForm is the browser signup form with a confirmation field.
type SignupForm struct {
	Username  string `form:"username"`
	Password1 string `form:"password1"`
	Password2 string `form:"password2"`
}

type LogoutRequest struct {
	Token string `json:"token" form:"token"`
}

type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
