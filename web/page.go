package web

import (
	"github.com/MrEthical07/cursos/flash"
	"github.com/MrEthical07/cursos/render"
)

// Paths the controllers redirect to.
const (
	PathList   = "/listar-cursos"
	PathNew    = "/novo-curso"
	PathSave   = "/salvar-curso"
	PathEdit   = "/alterar-curso"
	PathRemove = "/excluir-curso"
	PathLogin  = "/login"
	PathLogout = "/deslogar"
	PathXML    = "/cursos.xml"
	PathJSON   = "/cursos.json"
)

// renderPage renders name with content and the pending flash message. The
// message is consumed only once the page rendered.
func renderPage[T any](d Deps, req *Request, name, title string, content T) (*Response, error) {
	page := render.Page[T]{
		Title:   title,
		Logged:  req.Session.Logged(),
		Content: content,
	}
	if msg, ok := flash.Peek(req.Session); ok {
		page.Flash = &msg
	}

	body, err := d.Renderer.Render(name, page)
	if err != nil {
		return nil, err
	}
	flash.Take(req.Session)
	return HTML(body), nil
}

// redirectWithFlash stores a message for the next page and redirects to location.
func redirectWithFlash(req *Request, kind flash.Kind, text, location string) *Response {
	flash.Set(req.Session, kind, text)
	return Redirect(location)
}
