package results

import (
	"html/template"
	"io"
)

// PageData 结果页面的数据
type PageData struct {
	Title       string
	Header      []string
	Rows        [][]string
	DownloadURL string
	XLSXURL     string
}

var resultsPage = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css">
    <style>
        body { background-color: #121212; color: white; font-family: 'Arial', sans-serif; }
        .container { max-width: 1000px; margin: auto; background: #1e1e1e; padding: 30px; border-radius: 10px; margin-top: 50px; }
        h2 { text-align: center; margin-bottom: 20px; }
        .btn { display: block; width: 220px; margin: 20px auto 0; }
    </style>
</head>
<body>
    <div class="container">
        <h2>{{.Title}}</h2>
        <table class="table table-dark table-bordered table-hover">
            <thead>
                <tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
            </thead>
            <tbody>
                {{- range .Rows}}
                <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
                {{- end}}
            </tbody>
        </table>
        <a class="btn btn-primary" href="{{.DownloadURL}}">Download CSV</a>
        {{- if .XLSXURL}}
        <a class="btn btn-secondary" href="{{.XLSXURL}}">Download XLSX</a>
        {{- end}}
    </div>
</body>
</html>
`))

// RenderHTML 把结果表渲染为带样式的 HTML 页面，单元格内容会被转义
func RenderHTML(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "Resume Ranking Results"
	}
	return resultsPage.Execute(w, data)
}
