package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var verifyTmpl = template.Must(template.New("verify").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Verify your email address</h2>
  <p>Thanks for signing up for CourseCraft! Click the button below to verify your email address.</p>
  <p><a href="{{.Link}}" style="display:inline-block;background:#4F46E5;color:#fff;padding:12px 30px;text-decoration:none;border-radius:5px;">Verify Email</a></p>
  <p>Or paste this link into your browser:</p>
  <p style="word-break: break-all; color: #4F46E5;">{{.Link}}</p>
  <p style="font-size:12px;color:#666;">This link expires in 24 hours. If you didn't create an account, ignore this email.</p>
</body>
</html>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Reset your password</h2>
  <p>You (or someone else) requested a password reset. Click the button below to set a new password.</p>
  <p><a href="{{.Link}}" style="display:inline-block;background:#4F46E5;color:#fff;padding:12px 30px;text-decoration:none;border-radius:5px;">Reset Password</a></p>
  <p>Or paste this link into your browser:</p>
  <p style="word-break: break-all; color: #4F46E5;">{{.Link}}</p>
  <p style="font-size:12px;color:#666;">This link expires in 10 minutes. If you didn't request a reset, ignore this email and your password stays unchanged.</p>
</body>
</html>
`))

func RenderVerification(link string) (string, error) { return render(verifyTmpl, link) }
func RenderPasswordReset(link string) (string, error) { return render(resetTmpl, link) }

func render(t *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
