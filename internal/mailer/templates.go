package mailer

import "fmt"

// RegistrationMessage builds the subject and bodies for a registration code.
func RegistrationMessage(siteName, code string, minutes int) (subject, text, html string) {
	subject = fmt.Sprintf("%s: verify your email", siteName)
	text = fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.", siteName, code, minutes)
	html = fmt.Sprintf("<p>Your %s verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", siteName, code, minutes)
	return subject, text, html
}

// RedemptionMessage builds the subject and bodies for a redemption code.
func RedemptionMessage(siteName, cafeName string, points int64, code string, minutes int) (subject, text, html string) {
	subject = fmt.Sprintf("%s: confirm your redemption at %s", siteName, cafeName)
	text = fmt.Sprintf("%s wants to redeem %d of your points. Share code %s with the cafe to confirm. It expires in %d minutes.", cafeName, points, code, minutes)
	html = fmt.Sprintf("<p>%s wants to redeem <strong>%d</strong> of your points.</p><p>Share code <strong>%s</strong> with the cafe to confirm. It expires in %d minutes.</p>", cafeName, points, code, minutes)
	return subject, text, html
}

// PasswordResetMessage builds the subject and bodies for a reset code.
func PasswordResetMessage(siteName, code string, minutes int) (subject, text, html string) {
	subject = fmt.Sprintf("%s: password reset code", siteName)
	text = fmt.Sprintf("Your %s password reset code is %s. It expires in %d minutes.", siteName, code, minutes)
	html = fmt.Sprintf("<p>Your %s password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", siteName, code, minutes)
	return subject, text, html
}
