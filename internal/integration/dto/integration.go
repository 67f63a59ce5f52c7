package dto

type CreateIntegrationRequest struct {
	Provider     string `json:"provider" binding:"required,oneof=google imap"`
	EmailAddress string `json:"email_address" binding:"required,email"`

	// Google grants
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// IMAP credentials
	ImapServer   string `json:"imap_server"`
	ImapPort     int    `json:"imap_port"`
	ImapPassword string `json:"imap_password"`
}
