package view

import (
	"html/template"
	"io"
)

var listTmpl = template.Must(template.New("list").Parse(`<div id="collection">
  <h1>{{.Title}}</h1>
{{- range .Rows}}
  <div class="record" data-key="{{.Key}}">
    <h2>{{.Name}}</h2>
    <p>{{.Category}}</p>
    <p>{{.Value}}</p>
  </div>
{{- end}}
</div>
`))

var pageTmpl = template.Must(template.Must(listTmpl.Clone()).New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
</head>
<body>
{{template "list" .}}
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws/stream");
  ws.onmessage = function (ev) {
    var snap = JSON.parse(ev.data).data;
    var root = document.getElementById("collection");
    var h1 = document.createElement("h1");
    h1.textContent = snap.title;
    root.replaceChildren(h1);
    snap.rows.forEach(function (r) {
      var div = document.createElement("div");
      div.className = "record";
      div.dataset.key = r.key;
      [["h2", r.name], ["p", r.category], ["p", r.value]].forEach(function (c) {
        var el = document.createElement(c[0]);
        el.textContent = c[1];
        div.appendChild(el);
      });
      root.appendChild(div);
    });
  };
})();
</script>
</body>
</html>
`))

type listData struct {
	Title string
	Rows  []Row
}

// RenderHTML writes the list markup: the heading and one block per row,
// keyed by the row key.
func RenderHTML(w io.Writer, l Layout, rows []Row) error {
	return listTmpl.Execute(w, listData{Title: l.Title, Rows: rows})
}

// RenderPage writes a complete HTML document around the list. The embedded
// script replaces the list whenever /ws/stream sends a new snapshot.
func RenderPage(w io.Writer, l Layout, rows []Row) error {
	return pageTmpl.Execute(w, listData{Title: l.Title, Rows: rows})
}
