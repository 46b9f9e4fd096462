package main

import (
	"fmt"
	"strings"

	"github.com/sarchlab/xtrace/objrt"
)

// demoWorld is the sample class hierarchy the commands operate on:
// Responder <- View <- Widget and View <- Button.
type demoWorld struct {
	rt *objrt.Runtime

	responder *objrt.Class
	view      *objrt.Class
	widget    *objrt.Class
	button    *objrt.Class
}

func newDemoWorld() *demoWorld {
	w := &demoWorld{rt: objrt.NewRuntime()}

	w.responder = w.rt.DefineClass("Responder", nil)
	w.responder.AddMethod("alloc", objrt.Types("@"),
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			return self
		})
	w.responder.AddMethod(objrt.DescriptionSelector, objrt.Types("@"),
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			return fmt.Sprintf("%s #%d", self.Class().Name(), self.ID())
		})
	w.responder.AddMethod("handleEvent:", objrt.Types("B", "*"),
		func(_ *objrt.Object, _ objrt.Selector, args ...any) any {
			return strings.HasPrefix(args[0].(string), "key")
		}, "event")

	w.view = w.rt.DefineClass("View", w.responder)
	w.view.AddProperty("title", "@")
	w.view.AddMethod("layout", objrt.Types("v"),
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			objrt.Send(self, "handleEvent:", "layout")
			return nil
		})
	w.view.AddMethod("addSubview:", objrt.Types("v", "@"),
		func(self *objrt.Object, _ objrt.Selector, args ...any) any {
			subviews, _ := self.Get("subviews").([]*objrt.Object)
			self.Set("subviews", append(subviews, args[0].(*objrt.Object)))
			return nil
		}, "view")

	w.widget = w.rt.DefineClass("Widget", w.view)
	w.widget.AddMethod("resizeWidth:height:", objrt.Types("v", "i", "i"),
		func(self *objrt.Object, _ objrt.Selector, args ...any) any {
			self.Set("width", args[0])
			self.Set("height", args[1])
			objrt.SendSuper(self, w.widget, "layout")
			return nil
		})
	w.widget.AddMethod("area", objrt.Types("i"),
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			width, _ := self.Get("width").(int)
			height, _ := self.Get("height").(int)
			return width * height
		})
	w.widget.AddMethod("scale:", objrt.Types("d", "d"),
		func(self *objrt.Object, _ objrt.Selector, args ...any) any {
			area, _ := objrt.Send(self, "area").(int)
			return float64(area) * args[0].(float64)
		}, "factor")

	w.button = w.rt.DefineClass("Button", w.view)
	w.button.AddMethod("press", objrt.Types("B"),
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			return objrt.Send(self, "handleEvent:", "keyDown") == true
		})

	return w
}

// class resolves a class name of the world.
func (w *demoWorld) class(name string) (*objrt.Class, error) {
	c := w.rt.Class(name)
	if c == nil {
		return nil, fmt.Errorf("unknown class %q", name)
	}

	return c, nil
}

// run sends one round of sample messages.
func (w *demoWorld) run(round int) {
	root := w.view.New()
	objrt.Send(root, "setTitle", fmt.Sprintf("window %d", round))

	widget := w.widget.New()
	objrt.Send(root, "addSubview:", widget)
	objrt.Send(widget, "resizeWidth:height:", 10+round, 20)
	objrt.Send(widget, "scale:", 1.5)

	button := w.button.New()
	objrt.Send(root, "addSubview:", button)
	objrt.Send(button, "press")

	objrt.Send(root, "layout")
}
