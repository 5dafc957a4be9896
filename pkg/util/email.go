package util

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// SendVerificationEmail sends a verification email via Gmail SMTP
func SendVerificationEmail(toEmail, code string) error {
	// Gmail SMTP 설정 (환경변수에서 가져오기)
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"
	fromEmail := os.Getenv("SMTP_EMAIL")
	password := os.Getenv("SMTP_PASSWORD")

	// 개발 모드: SMTP 설정이 없으면 콘솔에 출력만
	if fromEmail == "" || password == "" {
		log.Printf("[DEV MODE] 이메일 인증 코드: %s (받는 사람: %s)", code, toEmail)
		return nil
	}

	// 이메일 본문 구성
	subject := "[대여장터] 이메일 인증 코드"
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
		<h1 style="color: #333; margin-bottom: 20px;">이메일 인증</h1>
		<p style="color: #666; line-height: 1.6; margin-bottom: 30px;">
			대여장터를 이용해주셔서 감사합니다.<br>
			아래 인증 코드를 입력하여 이메일 인증을 완료해주세요.
		</p>
		<div style="background-color: #f8f9fa; padding: 30px; border-radius: 8px; text-align: center; margin-bottom: 30px;">
			<h2 style="color: #333; margin: 0; font-size: 36px; letter-spacing: 4px;">%s</h2>
		</div>
		<p style="color: #999; font-size: 14px; margin-bottom: 10px;">
			* 이 인증 코드는 5분 동안 유효합니다.
		</p>
		<p style="color: #999; font-size: 14px;">
			* 본인이 요청하지 않은 경우, 이 이메일을 무시하셔도 됩니다.
		</p>
	</div>
</body>
</html>
`, code)

	// 이메일 메시지 구성
	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		fromEmail, toEmail, subject, body,
	))

	// SMTP 인증
	auth := smtp.PlainAuth("", fromEmail, password, smtpHost)

	// 이메일 전송
	err := smtp.SendMail(
		smtpHost+":"+smtpPort,
		auth,
		fromEmail,
		[]string{toEmail},
		message,
	)

	if err != nil {
		log.Printf("이메일 전송 실패: %v", err)
		return fmt.Errorf("이메일 전송에 실패했습니다: %v", err)
	}

	log.Printf("인증 이메일 발송 완료: %s", toEmail)
	return nil
}
