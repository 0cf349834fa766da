package templates

import (
  "bytes"
  "html/template"
)

type ShareEmailData struct {
  Logo            string
  SenderName      string
  CharacterName   string
  CharacterDesc   string
  AvatarURL       string
  ShareLink       string
}

const shareHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>A character was shared with you on Castly</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f5f5f5;
      color: #333;
    }
    .email-container {
      width: 100%;
      max-width: 600px;
      margin: 0 auto;
      background-color: #ffffff;
    }
    .header {
      text-align: center;
      padding: 24px 20px 8px;
    }
    .header img {
      max-height: 48px;
    }
    .content {
      padding: 8px 32px 24px;
      font-size: 15px;
      line-height: 1.5;
    }
    .avatar-container {
      text-align: center;
      padding: 12px 0;
    }
    .avatar-container img {
      width: 96px;
      height: 96px;
      border-radius: 50%;
    }
    .button-container {
      text-align: center;
      padding: 16px 0;
    }
    .cta-button {
      display: inline-block;
      padding: 12px 28px;
      background-color: #4f46e5;
      color: #ffffff;
      text-decoration: none;
      border-radius: 6px;
      font-weight: bold;
    }
    .footer {
      font-size: 12px;
      color: #999;
      text-align: center;
      padding: 10px 20px;
    }
    .highlight {
      font-weight: bold;
      color: #333;
    }
  </style>
</head>
<body>
  <table class="email-container" role="presentation" cellspacing="0" cellpadding="0">
    <tr>
      <td>
        <div class="header">
          <img src="{{.Logo}}" alt="Castly Logo" />
          <h1>Meet {{.CharacterName}}</h1>
        </div>

        <div class="content">
          <p><span class="highlight">{{.SenderName}}</span> shared a character
             with you on Castly.</p>

          <div class="avatar-container">
            <img src="{{.AvatarURL}}" alt="Character Avatar" />
          </div>

          {{if .CharacterDesc}}
            <p>{{.CharacterDesc}}</p>
          {{end}}

          <p>Start a conversation with
             <span class="highlight">{{.CharacterName}}</span> by clicking the
             button below.</p>

          <div class="button-container">
            <a class="cta-button" href="{{.ShareLink}}">Open Character</a>
          </div>
        </div>

        <div class="footer">
          <p>&copy; 2026 Castly Inc. All rights reserved.</p>
        </div>
      </td>
    </tr>
  </table>
</body>
</html>
`

func RenderShareHTML(data ShareEmailData) (string, error) {
  tmpl, err := template.New("share").Parse(shareHTML)
  if err != nil {
    return "", err
  }
  var buf bytes.Buffer
  if err := tmpl.Execute(&buf, data); err != nil {
    return "", err
  }
  return buf.String(), nil
}
