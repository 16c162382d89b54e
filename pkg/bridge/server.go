package bridge

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"modbridge/pkg/apis"
	"modbridge/pkg/apis/response"
	"modbridge/pkg/runtime"
)

func InstallHandler(group *gin.RouterGroup, mgr *Manager) {
	group.GET("/devices", listDevices(mgr))
	group.GET("/devices/:name", getDeviceByName(mgr))
	group.GET("/bridgeMeta", getBridgeMeta(mgr))
	group.GET("/bridgeCpu", getBridgeCpu(mgr))
	group.GET("/bridgeMem", getBridgeMem(mgr))
	group.GET("/bridgeDisk", getBridgeDisk(mgr))
}

func listDevices(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := runtime.DeviceFilter{}
		query := c.Request.URL.Query()
		if len(query) > 0 {
			v := query.Get(apis.Filter)
			if len(v) > 0 {
				if err := json.Unmarshal([]byte(v), &filter); err != nil {
					klog.V(2).InfoS("Failed to parse filter", "filter", v, "err", err)
					c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
					return
				}
			}
		}
		devices := mgr.ListDevices(&filter)

		c.JSON(http.StatusOK, gin.H{"devices": devices})
	}
}

func getDeviceByName(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		detail, err := mgr.GetDeviceByName(name)
		if err != nil {
			if os.IsNotExist(err) {
				c.Status(http.StatusNotFound)
			} else {
				c.JSON(http.StatusBadRequest, response.NewMultiError(err))
			}
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func getBridgeMeta(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, _ := mgr.GetMeta()
		c.JSON(http.StatusOK, meta)
	}
}

func getBridgeCpu(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cpus, err := mgr.getBridgeCpu()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Cpus: cpus})
	}
}

func getBridgeMem(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mem, err := mgr.getBridgeMem()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Mem: mem})
	}
}

func getBridgeDisk(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		disks, err := mgr.getBridgeDisk()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Disks: disks})
	}
}
