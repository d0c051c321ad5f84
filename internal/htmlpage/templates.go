package htmlpage

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang='en'>
<head>
    <meta charset='utf-8'>
    <title>{{.Name}}</title>
    <link rel=stylesheet href='../style.css'>
</head>
<body>
    <div class=first>
        <a href='#pg0'>FIRST</a>
    </div>
    <div class=last>
        <a href='#pg{{.LastPage}}'>LAST</a>
    </div>
{{- range .Pages}}
    <div class=page id='pg{{.Index}}'>
        <nav>
            <div class=prev>{{if .HasPrev}}<a href='#pg{{.Prev}}'>PREV</a>{{else}}PREV{{end}}</div>
            <div class=next>{{if .HasNext}}<a href='#pg{{.Next}}'>NEXT</a>{{else}}NEXT{{end}}</div>
        </nav>
{{- range .Messages}}
        <div class='{{.Class}}'>
            <span class=date>{{.Date}}</span>
            <span class=time>{{.Time}}</span>
            <span class=sender>{{.Sender}}</span>
            {{- if .Quote}}
            <div class=quote>{{.Quote}}</div>
            {{- end}}
            <span class=body>{{.Body}}</span>
            <span class=reaction>{{.Reactions}}</span>
        </div>
{{- end}}
    </div>
{{- end}}
    <script>if (!document.location.hash) document.location.hash = 'pg0'</script>
</body>
</html>
`))

type pageData struct {
	Name     string
	LastPage int
	Pages    []pageView
}

type pageView struct {
	Index    int
	HasPrev  bool
	Prev     int
	HasNext  bool
	Next     int
	Messages []messageView
}

type messageView struct {
	Class     string
	Date      string
	Time      string
	Sender    string
	Quote     string
	Body      template.HTML
	Reactions string
}
