package cursos

import (
	"net/http"

	"github.com/MrEthical07/cursos/route"
	"github.com/MrEthical07/cursos/web"
)

// DefaultRoutes returns the course catalog route set.
func DefaultRoutes() []route.Entry {
	return []route.Entry{
		{Path: web.PathList, Name: "List", Factory: web.NewList},
		{Path: web.PathNew, Name: "NewForm", Factory: web.NewNewForm},
		{Path: web.PathSave, Name: "Persist", Factory: web.NewPersist},
		{Path: web.PathEdit, Name: "EditForm", Factory: web.NewEditForm},
		{Path: web.PathRemove, Name: "Remove", Factory: web.NewRemove},
		{Path: web.PathLogin, Name: "Login", Factory: newLogin},
		{Path: web.PathLogout, Name: "Logout", Factory: web.NewLogout},
		{Path: web.PathXML, Name: "XMLExport", Factory: web.NewXMLExport},
		{Path: web.PathJSON, Name: "JSONExport", Factory: web.NewJSONExport},
	}
}

func newLogin(d web.Deps) web.Controller {
	return web.MethodSwitch{
		http.MethodGet:  web.NewLoginForm(d),
		http.MethodPost: web.NewLoginProcess(d),
	}
}
