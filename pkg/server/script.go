package server

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/vango-dev/tether/pkg/bind"
	"github.com/vango-dev/tether/pkg/render"
)

// scriptTemplate binds a Vue instance to a channel. Every value is
// inserted as encoded JSON, which escapes <, > and &.
//
// A model without el mounts on the script tag's data-el attribute, or
// "#app". Component markup is appended to the body before mounting.
var scriptTemplate = template.Must(template.New("script").Parse(`(function () {
  "use strict";
  var channel = {{.Channel}};
  var debounce = {{.Debounce}};
  var wsPath = {{.WebSocket}};
  var model = {{.Model}};
  var script = document.currentScript;

  var tether = window.tether = window.tether || { mixins: {}, sockets: {} };

  function connect() {
    var sock = tether.sockets[channel];
    if (sock && sock.readyState <= 1) {
      return sock;
    }
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    sock = new WebSocket(proto + "//" + location.host + wsPath + "?channel=" + encodeURIComponent(channel));
    sock.onclose = function () { setTimeout(connect, 1000); };
    sock.onmessage = function (e) {
      var delta = JSON.parse(e.data);
      var vm = tether.vms && tether.vms[channel];
      if (vm && delta.key in vm.$data) {
        vm[delta.key] = delta.value;
      }
    };
    tether.sockets[channel] = sock;
    return sock;
  }

  function send(field, newval, oldval) {
    var sock = connect();
    var msg = JSON.stringify({
      channel: channel,
      message: "watchers",
      payload: { field: field, newval: newval, oldval: oldval }
    });
    if (sock.readyState === 1) {
      sock.send(msg);
    } else {
      sock.addEventListener("open", function () { sock.send(msg); }, { once: true });
    }
  }

  tether.mixins[{{.Mixin}}] = {
    created: function () {
      var vm = this;
      Object.keys(vm.$data).forEach(function (key) {
        var timer = null;
        var first;
        vm.$watch(key, function (newval, oldval) {
          if (timer === null) {
            first = oldval;
          } else {
            clearTimeout(timer);
          }
          timer = setTimeout(function () {
            timer = null;
            send(key, newval, first);
          }, debounce);
        }, { deep: true });
      });
    }
  };

  if (model.el === undefined) {
    model.el = (script && script.dataset.el) || "#app";
  }
  model.mixins = model.mixins.map(function (name) { return tether.mixins[name]; });
  if (model.components) {
    var templates = document.createElement("div");
    templates.innerHTML = model.components;
    document.body.appendChild(templates);
  }
  delete model.components;
  tether.vms = tether.vms || {};
  connect();
  tether.vms[channel] = new Vue(model);
})();
`))

type scriptData struct {
	Channel   string
	Debounce  int64
	WebSocket string
	Mixin     string
	Model     string
}

// Script renders the glue script for b.
func (s *Server) Script(b *bind.Binding) ([]byte, error) {
	vue, err := b.Render()
	if err != nil {
		return nil, err
	}
	model, err := render.Encode(vue)
	if err != nil {
		return nil, err
	}

	data := scriptData{
		Channel:   jsString(b.Channel()),
		Debounce:  s.config.Debounce.Milliseconds(),
		WebSocket: jsString(s.config.BasePath + "/ws"),
		Mixin:     jsString(render.WatcherMixin),
		Model:     string(model),
	}
	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jsString(v string) string {
	data, _ := json.Marshal(v)
	return string(data)
}
